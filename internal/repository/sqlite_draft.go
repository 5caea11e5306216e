package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/promptforge/internal/db"
)

// SQLiteDraftRepo keeps the single conversation draft.
type SQLiteDraftRepo struct {
	db db.DBTX
}

// NewSQLiteDraftRepo creates a new SQLiteDraftRepo.
func NewSQLiteDraftRepo(conn db.DBTX) *SQLiteDraftRepo {
	return &SQLiteDraftRepo{db: conn}
}

// LoadDraft returns the stored draft, or nil when there is none.
func (r *SQLiteDraftRepo) LoadDraft(ctx context.Context) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM drafts WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return []byte(data), nil
}

func (r *SQLiteDraftRepo) SaveDraft(ctx context.Context, data []byte, savedAt time.Time) error {
	query := `INSERT INTO drafts (id, data, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`
	if _, err := r.db.ExecContext(ctx, query, string(data), formatTime(savedAt)); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

func (r *SQLiteDraftRepo) DeleteDraft(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = 1`); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}
