package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/promptforge/internal/db"
	"github.com/alexanderramin/promptforge/internal/domain"
)

// SQLiteEventRepo appends analytics events.
type SQLiteEventRepo struct {
	db db.DBTX
}

// NewSQLiteEventRepo creates a new SQLiteEventRepo.
func NewSQLiteEventRepo(conn db.DBTX) *SQLiteEventRepo {
	return &SQLiteEventRepo{db: conn}
}

func (r *SQLiteEventRepo) RecordEvent(ctx context.Context, ev domain.Event) error {
	payload := string(ev.Payload)
	if payload == "" {
		payload = "{}"
	}
	query := `INSERT INTO events (session_id, type, payload, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, ev.SessionID, string(ev.Type), payload, formatTime(ev.CreatedAt)); err != nil {
		return fmt.Errorf("recording %s event: %w", ev.Type, err)
	}
	return nil
}

// ListEvents returns events in insertion order. An empty eventType matches
// every type; a non-positive limit returns everything.
func (r *SQLiteEventRepo) ListEvents(ctx context.Context, eventType domain.EventType, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT session_id, type, payload, created_at FROM events
		WHERE ? = '' OR type = ?
		ORDER BY id
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, string(eventType), string(eventType), limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		var typ, payload, created string
		if err := rows.Scan(&ev.SessionID, &typ, &payload, &created); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Type = domain.EventType(typ)
		ev.Payload = json.RawMessage(payload)
		if ev.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parsing event time: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
