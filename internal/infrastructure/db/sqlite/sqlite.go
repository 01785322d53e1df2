// Package sqlite is the embedded user store used for local development and
// tests. Schema is applied on open; there is no separate migration step.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    email      VARCHAR(100) NOT NULL UNIQUE,
    username   VARCHAR(50),
    password   VARCHAR(100),
    created_at INTEGER NOT NULL,
    activated  BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_roles (
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role    VARCHAR(16) NOT NULL,
    PRIMARY KEY (user_id, role)
);
`

// Open connects to dsn (e.g. "file:blog.db?cache=shared&mode=rwc" or
// ":memory:"), applies pragmas and creates the schema.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and every
	// :memory: connection would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return db, nil
}

// HealthCheck reports SQLite availability for the readiness probe.
type HealthCheck struct {
	db *sql.DB
}

func NewHealthCheck(db *sql.DB) *HealthCheck {
	return &HealthCheck{db: db}
}

func (h *HealthCheck) Name() string { return "sqlite" }

func (h *HealthCheck) Check(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
