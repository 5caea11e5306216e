package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/promptforge/internal/db"
	"github.com/alexanderramin/promptforge/internal/domain"
)

// SQLiteHistoryRepo implements HistoryRepo using a SQLite database.
type SQLiteHistoryRepo struct {
	db db.DBTX
}

// NewSQLiteHistoryRepo creates a new SQLiteHistoryRepo.
func NewSQLiteHistoryRepo(conn db.DBTX) *SQLiteHistoryRepo {
	return &SQLiteHistoryRepo{db: conn}
}

const historyColumns = `id, user_id, task, label, body, model, source, created_at`

func (r *SQLiteHistoryRepo) AddHistory(ctx context.Context, e domain.HistoryEntry) error {
	query := `INSERT INTO history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Task, e.Label, e.Body, e.Model, string(e.Source), formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// ListHistory returns the user's entries, newest first. A non-positive limit
// returns everything.
func (r *SQLiteHistoryRepo) ListHistory(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + historyColumns + ` FROM history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteHistoryRepo) GetHistory(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE id = ?`
	e, err := scanHistory(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning history entry: %w", err)
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(s scanner) (domain.HistoryEntry, error) {
	var e domain.HistoryEntry
	var source, created string
	if err := s.Scan(&e.ID, &e.UserID, &e.Task, &e.Label, &e.Body, &e.Model, &source, &created); err != nil {
		return domain.HistoryEntry{}, err
	}
	e.Source = domain.PromptSource(source)
	t, err := parseTime(created)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}
