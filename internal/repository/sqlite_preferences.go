package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/promptforge/internal/db"
	"github.com/alexanderramin/promptforge/internal/domain"
)

// SQLitePreferenceRepo stores one preferences document per scope
// ("user:<id>" or "session:<id>").
type SQLitePreferenceRepo struct {
	db  db.DBTX
	now func() time.Time
}

// NewSQLitePreferenceRepo creates a new SQLitePreferenceRepo.
func NewSQLitePreferenceRepo(conn db.DBTX) *SQLitePreferenceRepo {
	return &SQLitePreferenceRepo{db: conn, now: time.Now}
}

// GetPreferences returns the stored preferences for scope, or empty
// preferences when none were saved.
func (r *SQLitePreferenceRepo) GetPreferences(ctx context.Context, scope string) (domain.Preferences, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM preferences WHERE scope = ?`, scope).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Preferences{}, nil
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("loading preferences for %s: %w", scope, err)
	}
	var p domain.Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return domain.Preferences{}, fmt.Errorf("decoding preferences for %s: %w", scope, err)
	}
	return p, nil
}

func (r *SQLitePreferenceRepo) SavePreferences(ctx context.Context, scope string, p domain.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	query := `INSERT INTO preferences (scope, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, scope, string(data), formatTime(r.now())); err != nil {
		return fmt.Errorf("saving preferences for %s: %w", scope, err)
	}
	return nil
}

// DeletePreferences removes the document for scope.
func (r *SQLitePreferenceRepo) DeletePreferences(ctx context.Context, scope string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("deleting preferences for %s: %w", scope, err)
	}
	return nil
}
