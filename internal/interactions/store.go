package interactions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CATrainer/revu-sub000/internal/db"
)

// Store manages persistence of interactions.
type Store struct {
	db *db.DB
}

// NewStore creates a new interaction store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create ingests a new interaction.
func (s *Store) Create(ctx context.Context, in Interaction) (*Interaction, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	if in.Status == "" {
		in.Status = StatusUnread
	}
	if in.Platform == "" {
		in.Platform = PlatformYouTube
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}

	tags, err := json.Marshal(in.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, external_id, platform, author_name, author_is_subscriber, author_is_verified,
		   content, sentiment, like_count, reply_count, priority_score, status, tags, pending_response,
		   pending_auto_send, routed_view, parent_id, scope_id, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ExternalID, in.Platform, in.AuthorName, in.AuthorIsSubscriber, in.AuthorIsVerified,
		in.Content, in.Sentiment, in.LikeCount, in.ReplyCount, in.PriorityScore, in.Status, string(tags),
		in.PendingResponse, in.PendingAutoSend, in.RoutedView, nullable(in.ParentID), in.ScopeID,
		in.PublishedAt, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting interaction: %w", err)
	}
	return &in, nil
}

const selectColumns = `id, external_id, platform, author_name, author_is_subscriber, author_is_verified,
	content, sentiment, like_count, reply_count, priority_score, status, tags, pending_response,
	pending_auto_send, routed_view, parent_id, scope_id, published_at, created_at, updated_at`

// GetByID retrieves an interaction by its ID. Returns (nil, nil) when not found.
func (s *Store) GetByID(ctx context.Context, id string) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM interactions WHERE id = ?`, id)
	in, err := scanInteraction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting interaction: %w", err)
	}
	return in, nil
}

// List returns interactions matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Interaction, error) {
	query := `SELECT ` + selectColumns + ` FROM interactions WHERE 1=1`
	args := []interface{}{}

	if filter.ScopeID != "" {
		query += " AND scope_id = ?"
		args = append(args, filter.ScopeID)
	}
	if filter.Platform != "" {
		query += " AND platform = ?"
		args = append(args, filter.Platform)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
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
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	defer rows.Close()

	var result []Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		// Tag filtering happens after the JSON column is decoded.
		if filter.Tag != "" && !in.HasTag(filter.Tag) {
			continue
		}
		result = append(result, *in)
	}
	return result, rows.Err()
}

// UpdateStatus overwrites the status of an interaction.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !ValidStatuses[status] {
		return fmt.Errorf("invalid status: %s", status)
	}
	return s.exec(ctx, `UPDATE interactions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
}

// AddTag appends a tag if not already present. Set semantics: adding the same
// tag twice is a no-op.
func (s *Store) AddTag(ctx context.Context, id, tag string) error {
	in, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if in == nil {
		return fmt.Errorf("interaction not found: %s", id)
	}
	if in.HasTag(tag) {
		return nil
	}
	tags, err := json.Marshal(append(in.Tags, tag))
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	return s.exec(ctx, `UPDATE interactions SET tags = ?, updated_at = ? WHERE id = ?`,
		string(tags), time.Now().UTC(), id)
}

// RemoveTag removes a tag if present.
func (s *Store) RemoveTag(ctx context.Context, id, tag string) error {
	in, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if in == nil {
		return fmt.Errorf("interaction not found: %s", id)
	}
	kept := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	tags, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}
	return s.exec(ctx, `UPDATE interactions SET tags = ?, updated_at = ? WHERE id = ?`,
		string(tags), time.Now().UTC(), id)
}

// SetPendingResponse stores a draft reply and moves the interaction to
// awaiting_approval.
func (s *Store) SetPendingResponse(ctx context.Context, id, text string, autoSend bool) error {
	return s.exec(ctx,
		`UPDATE interactions SET pending_response = ?, pending_auto_send = ?, status = ?, updated_at = ? WHERE id = ?`,
		text, autoSend, StatusAwaitingApproval, time.Now().UTC(), id)
}

// SetRoutedView reassigns the routing identifier.
func (s *Store) SetRoutedView(ctx context.Context, id, view string) error {
	return s.exec(ctx, `UPDATE interactions SET routed_view = ?, updated_at = ? WHERE id = ?`,
		view, time.Now().UTC(), id)
}

// RaisePriority lifts the priority score to at least floor. An existing
// higher score is never lowered.
func (s *Store) RaisePriority(ctx context.Context, id string, floor int) error {
	return s.exec(ctx,
		`UPDATE interactions SET priority_score = MAX(priority_score, ?), updated_at = ? WHERE id = ?`,
		floor, time.Now().UTC(), id)
}

// SetSentiment records the derived sentiment label.
func (s *Store) SetSentiment(ctx context.Context, id, sentiment string) error {
	return s.exec(ctx, `UPDATE interactions SET sentiment = ?, updated_at = ? WHERE id = ?`,
		sentiment, time.Now().UTC(), id)
}

// Delete hard-deletes an interaction. Only used for explicit user requests.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, `DELETE FROM interactions WHERE id = ?`, id)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating interaction: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("interaction not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInteraction(row rowScanner) (*Interaction, error) {
	var in Interaction
	var tags string
	var parentID sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(&in.ID, &in.ExternalID, &in.Platform, &in.AuthorName, &in.AuthorIsSubscriber,
		&in.AuthorIsVerified, &in.Content, &in.Sentiment, &in.LikeCount, &in.ReplyCount,
		&in.PriorityScore, &in.Status, &tags, &in.PendingResponse, &in.PendingAutoSend,
		&in.RoutedView, &parentID, &in.ScopeID, &publishedAt, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}

	in.ParentID = parentID.String
	if publishedAt.Valid {
		t := publishedAt.Time
		in.PublishedAt = &t
	}
	if err := json.Unmarshal([]byte(tags), &in.Tags); err != nil {
		in.Tags = []string{}
	}
	return &in, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
