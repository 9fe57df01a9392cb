package executions

import (
	"context"
	"testing"

	"github.com/CATrainer/revu-sub000/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestAppendAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec, err := store.Append(ctx, Record{
		RuleID:        "r1",
		InteractionID: "i1",
		Matched:       true,
		Confidence:    0.85,
		Action:        "add_tag",
		Result:        "applied",
		Detail:        "tagged question",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected generated ID")
	}

	records, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Confidence != 0.85 || records[0].Action != "add_tag" {
		t.Errorf("round-trip mismatch: %+v", records[0])
	}
}

func TestListFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Append(ctx, Record{RuleID: "r1", InteractionID: "i1", Matched: true})
	store.Append(ctx, Record{RuleID: "r1", InteractionID: "i2", Matched: false})
	store.Append(ctx, Record{RuleID: "r2", InteractionID: "i1", Matched: true})

	records, err := store.List(ctx, ListFilter{RuleID: "r1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("rule filter: expected 2, got %d", len(records))
	}

	records, _ = store.List(ctx, ListFilter{InteractionID: "i1"})
	if len(records) != 2 {
		t.Errorf("interaction filter: expected 2, got %d", len(records))
	}

	records, _ = store.List(ctx, ListFilter{MatchedOnly: true})
	if len(records) != 2 {
		t.Errorf("matched filter: expected 2, got %d", len(records))
	}

	records, _ = store.List(ctx, ListFilter{RuleID: "r1", MatchedOnly: true})
	if len(records) != 1 || records[0].InteractionID != "i1" {
		t.Errorf("combined filter: got %+v", records)
	}
}

func TestListLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Append(ctx, Record{RuleID: "r1", InteractionID: "i1", Matched: true})
	}

	records, err := store.List(ctx, ListFilter{Limit: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func TestCountMatched(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Append(ctx, Record{RuleID: "r1", InteractionID: "i1", Matched: true})
	store.Append(ctx, Record{RuleID: "r1", InteractionID: "i2", Matched: false})
	store.Append(ctx, Record{RuleID: "r2", InteractionID: "i3", Matched: true})

	count, err := store.CountMatched(ctx)
	if err != nil {
		t.Fatalf("CountMatched: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}
}
