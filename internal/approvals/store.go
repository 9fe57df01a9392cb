package approvals

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CATrainer/revu-sub000/internal/db"
)

// Store manages the approval queue.
type Store struct {
	db *db.DB
}

// NewStore creates a new approval queue store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Enqueue adds a drafted response to the queue and returns its ID. Callers
// treat this as fire-and-forget; rule evaluation never blocks on the queue's
// consumers.
func (s *Store) Enqueue(ctx context.Context, a Approval) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Status = StatusPending
	a.CreatedAt = time.Now().UTC()
	if a.Priority == 0 {
		a.Priority = 50
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO approvals (id, interaction_id, rule_id, response_text, reason, priority, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.InteractionID, a.RuleID, a.ResponseText, a.Reason, a.Priority, a.Status, a.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("enqueuing approval: %w", err)
	}
	return a.ID, nil
}

// GetByID retrieves an approval. Returns (nil, nil) when not found.
func (s *Store) GetByID(ctx context.Context, id string) (*Approval, error) {
	var a Approval
	var decidedBy sql.NullString
	var decidedAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, interaction_id, rule_id, response_text, reason, priority, status, decided_by, decided_at, created_at
		 FROM approvals WHERE id = ?`, id,
	).Scan(&a.ID, &a.InteractionID, &a.RuleID, &a.ResponseText, &a.Reason, &a.Priority, &a.Status,
		&decidedBy, &decidedAt, &a.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting approval: %w", err)
	}
	a.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}
	return &a, nil
}

// ListPending returns pending approvals, highest priority first.
func (s *Store) ListPending(ctx context.Context, limit int) ([]Approval, error) {
	query := `SELECT id, interaction_id, rule_id, response_text, reason, priority, status, decided_by, decided_at, created_at
		 FROM approvals WHERE status = ? ORDER BY priority DESC, created_at ASC`
	args := []interface{}{StatusPending}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}
	defer rows.Close()

	var approvals []Approval
	for rows.Next() {
		var a Approval
		var decidedBy sql.NullString
		var decidedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.InteractionID, &a.RuleID, &a.ResponseText, &a.Reason, &a.Priority,
			&a.Status, &decidedBy, &decidedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning approval: %w", err)
		}
		a.DecidedBy = decidedBy.String
		if decidedAt.Valid {
			t := decidedAt.Time
			a.DecidedAt = &t
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// Decide marks a pending approval approved or rejected.
func (s *Store) Decide(ctx context.Context, id string, status Status, decidedBy string) error {
	if status != StatusApproved && status != StatusRejected {
		return fmt.Errorf("invalid decision: %s", status)
	}
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE approvals SET status = ?, decided_by = ?, decided_at = ? WHERE id = ? AND status = ?`,
		status, decidedBy, now, id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("deciding approval: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pending approval not found: %s", id)
	}
	return nil
}

// PendingCount returns the number of pending approvals.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approvals WHERE status = ?`, StatusPending,
	).Scan(&count)
	return count, err
}
