package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	for _, table := range []string{"interactions", "rules", "rule_executions", "approvals"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "revu.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	// Migrations are idempotent.
	if err := d.migrate(); err != nil {
		t.Errorf("re-running migrations: %v", err)
	}
}

func TestStatusConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	_, err = d.Exec(`INSERT INTO interactions (id, content, status) VALUES ('x', 'hi', 'bogus')`)
	if err == nil {
		t.Error("expected CHECK constraint violation for bogus status")
	}
}
