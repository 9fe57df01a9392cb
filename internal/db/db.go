package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with revu-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS interactions (
    id TEXT PRIMARY KEY,
    external_id TEXT NOT NULL DEFAULT '',
    platform TEXT NOT NULL DEFAULT 'youtube',
    author_name TEXT NOT NULL DEFAULT '',
    author_is_subscriber INTEGER NOT NULL DEFAULT 0,
    author_is_verified INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL,
    sentiment TEXT NOT NULL DEFAULT '',
    like_count INTEGER NOT NULL DEFAULT 0,
    reply_count INTEGER NOT NULL DEFAULT 0,
    priority_score INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'unread' CHECK(status IN ('unread','read','awaiting_approval','answered','flagged','spam','archived')),
    tags TEXT NOT NULL DEFAULT '[]',
    pending_response TEXT NOT NULL DEFAULT '',
    pending_auto_send INTEGER NOT NULL DEFAULT 0,
    routed_view TEXT NOT NULL DEFAULT '',
    parent_id TEXT,
    scope_id TEXT NOT NULL DEFAULT '',
    published_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_interactions_status ON interactions(status);
CREATE INDEX IF NOT EXISTS idx_interactions_platform ON interactions(platform);
CREATE INDEX IF NOT EXISTS idx_interactions_scope ON interactions(scope_id);
CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at);

CREATE TABLE IF NOT EXISTS rules (
    id TEXT PRIMARY KEY,
    scope_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    conditions TEXT NOT NULL DEFAULT '[]',
    logic TEXT NOT NULL DEFAULT '',
    actions TEXT NOT NULL DEFAULT '[]',
    priority INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    deleted INTEGER NOT NULL DEFAULT 0,
    expires_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_rules_scope ON rules(scope_id);
CREATE INDEX IF NOT EXISTS idx_rules_enabled ON rules(enabled, deleted);
CREATE INDEX IF NOT EXISTS idx_rules_priority ON rules(priority DESC);

CREATE TABLE IF NOT EXISTS rule_executions (
    id TEXT PRIMARY KEY,
    rule_id TEXT NOT NULL,
    interaction_id TEXT NOT NULL,
    matched INTEGER NOT NULL DEFAULT 0,
    confidence REAL NOT NULL DEFAULT 0,
    action TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_executions_rule ON rule_executions(rule_id);
CREATE INDEX IF NOT EXISTS idx_executions_interaction ON rule_executions(interaction_id);
CREATE INDEX IF NOT EXISTS idx_executions_created ON rule_executions(created_at);

CREATE TABLE IF NOT EXISTS approvals (
    id TEXT PRIMARY KEY,
    interaction_id TEXT NOT NULL,
    rule_id TEXT NOT NULL DEFAULT '',
    response_text TEXT NOT NULL DEFAULT '',
    reason TEXT NOT NULL DEFAULT '',
    priority INTEGER NOT NULL DEFAULT 50,
    status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','approved','rejected')),
    decided_by TEXT,
    decided_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status);
CREATE INDEX IF NOT EXISTS idx_approvals_priority ON approvals(priority DESC);
CREATE INDEX IF NOT EXISTS idx_approvals_interaction ON approvals(interaction_id);
`
