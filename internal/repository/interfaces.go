package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

type HistoryRepo interface {
	AddHistory(ctx context.Context, entry domain.HistoryEntry) error
	ListHistory(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
	GetHistory(ctx context.Context, id string) (*domain.HistoryEntry, error)
}

type PreferenceRepo interface {
	GetPreferences(ctx context.Context, scope string) (domain.Preferences, error)
	SavePreferences(ctx context.Context, scope string, p domain.Preferences) error
}

type EventRepo interface {
	RecordEvent(ctx context.Context, event domain.Event) error
	ListEvents(ctx context.Context, eventType domain.EventType, limit int) ([]domain.Event, error)
}

type DraftRepo interface {
	LoadDraft(ctx context.Context) ([]byte, error)
	SaveDraft(ctx context.Context, data []byte, savedAt time.Time) error
	DeleteDraft(ctx context.Context) error
}

// LocalSession is the CLI's persisted identity between runs.
type LocalSession struct {
	SessionID  string
	User       *auth.User
	SignedInAt *time.Time
}

type LocalSessionRepo interface {
	Load(ctx context.Context) (LocalSession, error)
	Save(ctx context.Context, s LocalSession) error
}
