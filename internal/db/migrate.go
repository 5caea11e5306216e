package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS subscriptions (
		user_id                  TEXT PRIMARY KEY,
		tier                     TEXT NOT NULL
		                         CHECK(tier IN ('trial','basic','advanced','expired')),
		period_start             TEXT NOT NULL,
		quota_generations        INTEGER NOT NULL DEFAULT 0,
		quota_edits              INTEGER NOT NULL DEFAULT 0,
		quota_clarifying         INTEGER NOT NULL DEFAULT 0,
		usage_generations        INTEGER NOT NULL DEFAULT 0 CHECK(usage_generations >= 0),
		usage_edits              INTEGER NOT NULL DEFAULT 0 CHECK(usage_edits >= 0),
		usage_clarifying         INTEGER NOT NULL DEFAULT 0 CHECK(usage_clarifying >= 0),
		premium_finals_remaining INTEGER NOT NULL DEFAULT 0 CHECK(premium_finals_remaining >= 0),
		trial_expires_at         TEXT,
		updated_at               TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS history (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL DEFAULT '',
		task       TEXT NOT NULL,
		label      TEXT NOT NULL DEFAULT '',
		body       TEXT NOT NULL,
		model      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_history_user_created ON history(user_id, created_at)`,

	// Degraded prompts were indistinguishable from model output before this
	// column existed.
	`ALTER TABLE history ADD COLUMN source TEXT NOT NULL DEFAULT 'llm'`,

	`CREATE TABLE IF NOT EXISTS preferences (
		scope      TEXT PRIMARY KEY,
		data       TEXT NOT NULL DEFAULT '{}',
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		type       TEXT NOT NULL,
		payload    TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type)`,

	`CREATE TABLE IF NOT EXISTS drafts (
		id       INTEGER PRIMARY KEY CHECK(id = 1),
		data     TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS local_session (
		id           INTEGER PRIMARY KEY CHECK(id = 1),
		session_id   TEXT NOT NULL,
		user_id      TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		signed_in_at TEXT
	)`,
}
