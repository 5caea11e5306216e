package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/conversation"
	"github.com/alexanderramin/promptforge/internal/db"
	"github.com/alexanderramin/promptforge/internal/repository"
)

// Identity is the CLI's sign-in provider. The session id and signed-in user
// survive restarts in the local_session table; signing in moves anonymous
// preferences to the user in the same transaction.
type Identity struct {
	repo   repository.LocalSessionRepo
	uow    db.UnitOfWork
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	session repository.LocalSession
}

// LoadIdentity reads the stored session, creating one with a fresh session id
// on first run. A non-nil override replaces the stored user.
func LoadIdentity(ctx context.Context, repo repository.LocalSessionRepo, uow db.UnitOfWork, override *auth.User, logger *slog.Logger) (*Identity, error) {
	if logger == nil {
		logger = slog.Default()
	}
	id := &Identity{repo: repo, uow: uow, logger: logger, now: func() time.Time { return time.Now().UTC() }}

	s, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s = repository.LocalSession{SessionID: uuid.NewString()}
		if err := repo.Save(ctx, s); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	id.session = s

	if override != nil && (s.User == nil || s.User.ID != override.ID) {
		if err := id.signIn(ctx, override); err != nil {
			return nil, err
		}
	}
	return id, nil
}

// SessionID is the persistent id used to scope drafts, events and anonymous
// preferences.
func (i *Identity) SessionID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.session.SessionID
}

func (i *Identity) CurrentUser(context.Context) (*auth.User, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.session.User == nil {
		return nil, nil
	}
	u := *i.session.User
	return &u, nil
}

// SetUser signs u in, or signs out when u is nil. Persistence failures are
// logged; the in-memory identity still changes so the conversation can go on.
func (i *Identity) SetUser(u *auth.User) {
	ctx := context.Background()
	var err error
	if u == nil {
		err = i.signOut(ctx)
	} else {
		err = i.signIn(ctx, u)
	}
	if err != nil {
		i.logger.Warn("persisting sign-in failed", "error", err)
	}
}

func (i *Identity) signIn(ctx context.Context, u *auth.User) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	user := *u
	next := repository.LocalSession{SessionID: i.session.SessionID, User: &user, SignedInAt: &now}
	i.session = next
	err := repository.SignIn(ctx, i.uow, next,
		conversation.PreferenceScope(nil, next.SessionID),
		conversation.PreferenceScope(&user, next.SessionID))
	if err != nil {
		return fmt.Errorf("signing in %s: %w", user.ID, err)
	}
	return nil
}

func (i *Identity) signOut(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.session.User = nil
	i.session.SignedInAt = nil
	return i.repo.Save(ctx, i.session)
}
