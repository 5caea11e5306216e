package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradeFromHistoryWithoutSource opens a database created before
// history rows recorded their source and checks that existing rows survive
// and read back as model output.
func TestMigrate_UpgradeFromHistoryWithoutSource(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE history (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL DEFAULT '',
		task       TEXT NOT NULL,
		label      TEXT NOT NULL DEFAULT '',
		body       TEXT NOT NULL,
		model      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO history (id, user_id, task, label, body, model, created_at)
		VALUES ('h1', 'u1', 'Write a haiku', 'Write a haiku', 'You are a poet.', 'gpt-4o-mini', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var body, source string
	err = db.QueryRow(`SELECT body, source FROM history WHERE id = 'h1'`).Scan(&body, &source)
	require.NoError(t, err)
	assert.Equal(t, "You are a poet.", body)
	assert.Equal(t, "llm", source)

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name='idx_history_user_created'`).Scan(&name)
	require.NoError(t, err)
}
