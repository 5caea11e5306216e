// Package draft keeps a single versioned copy of the conversation so a
// session survives restarts. A draft whose version, session or user does not
// match the current context is discarded, never merged.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// CurrentVersion is the record layout written by Save.
const CurrentVersion = 1

// Record is the persisted draft.
type Record struct {
	Version   int                      `json:"version"`
	SessionID string                   `json:"sessionId"`
	UserID    string                   `json:"userId,omitempty"`
	SavedAt   time.Time                `json:"savedAt"`
	State     domain.ConversationState `json:"state"`
	Snapshot  *domain.Snapshot         `json:"snapshot,omitempty"`
}

// Scope identifies who a draft belongs to. An empty UserID is the signed-out
// user.
type Scope struct {
	SessionID string
	UserID    string
}

func (s Scope) matches(r Record) bool {
	return r.SessionID == s.SessionID && r.UserID == s.UserID
}

// Backend persists the encoded draft. LoadDraft returns nil data when no
// draft exists.
type Backend interface {
	LoadDraft(ctx context.Context) ([]byte, error)
	SaveDraft(ctx context.Context, data []byte, savedAt time.Time) error
	DeleteDraft(ctx context.Context) error
}

// Store reads and writes drafts through a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates a Store. A nil logger uses slog.Default.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Load returns the draft for scope. Unreadable or mismatched drafts are
// deleted and reported as absent. A generation that was in flight when the
// draft was written is marked stopped.
func (s *Store) Load(ctx context.Context, scope Scope) (Record, bool, error) {
	data, err := s.backend.LoadDraft(ctx)
	if err != nil {
		return Record{}, false, fmt.Errorf("loading draft: %w", err)
	}
	if len(data) == 0 {
		return Record{}, false, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("discarding unreadable draft", "error", err)
		return Record{}, false, s.Discard(ctx)
	}
	if rec.Version != CurrentVersion || !scope.matches(rec) {
		s.logger.Info("discarding draft from another context",
			"version", rec.Version, "session_match", rec.SessionID == scope.SessionID,
			"user_match", rec.UserID == scope.UserID)
		return Record{}, false, s.Discard(ctx)
	}
	rec.State = rec.State.Interrupted()
	if rec.Snapshot != nil {
		rec.Snapshot.State = rec.Snapshot.State.Interrupted()
	}
	return rec, true, nil
}

// Save writes state and snapshot under scope. Saving an empty conversation
// with no snapshot removes the draft instead.
func (s *Store) Save(ctx context.Context, scope Scope, state domain.ConversationState, snap *domain.Snapshot) error {
	if state.IsEmpty() && snap == nil {
		return s.Discard(ctx)
	}
	rec := Record{
		Version:   CurrentVersion,
		SessionID: scope.SessionID,
		UserID:    scope.UserID,
		SavedAt:   s.now(),
		State:     state,
		Snapshot:  snap,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	if err := s.backend.SaveDraft(ctx, data, rec.SavedAt); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// Discard deletes the stored draft, if any.
func (s *Store) Discard(ctx context.Context) error {
	if err := s.backend.DeleteDraft(ctx); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	return nil
}
