package executions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CATrainer/revu-sub000/internal/db"
)

// Store manages persistence of rule execution records.
type Store struct {
	db *db.DB
}

// NewStore creates a new execution log store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Append adds a record to the execution log.
func (s *Store) Append(ctx context.Context, rec Record) (*Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rule_executions (id, rule_id, interaction_id, matched, confidence, action, result, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RuleID, rec.InteractionID, rec.Matched, rec.Confidence, rec.Action, rec.Result, rec.Detail, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting execution record: %w", err)
	}
	return &rec, nil
}

// List returns records matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	query := `SELECT id, rule_id, interaction_id, matched, confidence, action, result, detail, created_at
		 FROM rule_executions WHERE 1=1`
	args := []interface{}{}

	if filter.RuleID != "" {
		query += " AND rule_id = ?"
		args = append(args, filter.RuleID)
	}
	if filter.InteractionID != "" {
		query += " AND interaction_id = ?"
		args = append(args, filter.InteractionID)
	}
	if filter.MatchedOnly {
		query += " AND matched = 1"
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires LIMIT before OFFSET.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing execution records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.RuleID, &rec.InteractionID, &rec.Matched, &rec.Confidence,
			&rec.Action, &rec.Result, &rec.Detail, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning execution record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountMatched returns how many logged evaluations matched.
func (s *Store) CountMatched(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rule_executions WHERE matched = 1`).Scan(&count)
	return count, err
}
