package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CATrainer/revu-sub000/internal/db"
)

// Store manages persistence of automation rules.
type Store struct {
	db *db.DB
}

// NewStore creates a new rule store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create adds a new rule.
func (s *Store) Create(ctx context.Context, r Rule) (*Rule, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Conditions == nil {
		r.Conditions = []Condition{}
	}
	if r.Actions == nil {
		r.Actions = []Action{}
	}

	conditions, actions, err := marshalRuleParts(r)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rules (id, scope_id, name, conditions, logic, actions, priority, enabled, deleted, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ScopeID, r.Name, conditions, r.Logic, actions, r.Priority, r.Enabled, r.Deleted, r.ExpiresAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting rule: %w", err)
	}
	return &r, nil
}

// GetByID retrieves a rule by its ID. Returns (nil, nil) when not found.
func (s *Store) GetByID(ctx context.Context, id string) (*Rule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, scope_id, name, conditions, logic, actions, priority, enabled, deleted, expires_at, created_at, updated_at
		 FROM rules WHERE id = ?`, id)
	r, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting rule: %w", err)
	}
	return r, nil
}

// List returns all non-deleted rules for a scope (or every scope when scopeID
// is empty), highest priority first.
func (s *Store) List(ctx context.Context, scopeID string) ([]Rule, error) {
	query := `SELECT id, scope_id, name, conditions, logic, actions, priority, enabled, deleted, expires_at, created_at, updated_at
		 FROM rules WHERE deleted = 0`
	args := []interface{}{}
	if scopeID != "" {
		query += " AND scope_id = ?"
		args = append(args, scopeID)
	}
	query += " ORDER BY priority DESC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var result []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// ListActive returns enabled, non-deleted, non-expired rules for a scope,
// highest priority first.
func (s *Store) ListActive(ctx context.Context, scopeID string) ([]Rule, error) {
	all, err := s.List(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var active []Rule
	for _, r := range all {
		if r.Active(now) {
			active = append(active, r)
		}
	}
	return active, nil
}

// Update replaces a rule's editable fields.
func (s *Store) Update(ctx context.Context, r Rule) error {
	conditions, actions, err := marshalRuleParts(r)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE rules SET name = ?, conditions = ?, logic = ?, actions = ?, priority = ?, enabled = ?, expires_at = ?, updated_at = ?
		 WHERE id = ? AND deleted = 0`,
		r.Name, conditions, r.Logic, actions, r.Priority, r.Enabled, r.ExpiresAt, time.Now().UTC(), r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rule not found: %s", r.ID)
	}
	return nil
}

// SetEnabled toggles a rule on or off.
func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE rules SET enabled = ?, updated_at = ? WHERE id = ? AND deleted = 0`,
		enabled, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("toggling rule: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rule not found: %s", id)
	}
	return nil
}

// SoftDelete marks a rule deleted without removing it.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE rules SET deleted = 1, enabled = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rule not found: %s", id)
	}
	return nil
}

func marshalRuleParts(r Rule) (string, string, error) {
	conditions, err := json.Marshal(r.Conditions)
	if err != nil {
		return "", "", fmt.Errorf("marshalling conditions: %w", err)
	}
	actions, err := json.Marshal(r.Actions)
	if err != nil {
		return "", "", fmt.Errorf("marshalling actions: %w", err)
	}
	return string(conditions), string(actions), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*Rule, error) {
	var r Rule
	var conditions, actions string
	var expiresAt sql.NullTime

	err := row.Scan(&r.ID, &r.ScopeID, &r.Name, &conditions, &r.Logic, &actions,
		&r.Priority, &r.Enabled, &r.Deleted, &expiresAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		r.ExpiresAt = &t
	}
	if err := json.Unmarshal([]byte(conditions), &r.Conditions); err != nil {
		r.Conditions = []Condition{}
	}
	if err := json.Unmarshal([]byte(actions), &r.Actions); err != nil {
		r.Actions = []Action{}
	}
	return &r, nil
}
