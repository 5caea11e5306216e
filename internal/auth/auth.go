// Package auth defines the narrow sign-in contract consumed by the pipeline
// and the conversation controller. Session issuance lives elsewhere.
package auth

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/alexanderramin/promptforge/internal/apperr"
)

// User is an authenticated caller.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Provider reports the current user, or nil when nobody is signed in.
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// Require returns the current user or UNAUTHENTICATED.
func Require(ctx context.Context, p Provider) (*User, error) {
	if p == nil {
		return nil, apperr.Unauthenticated()
	}
	u, err := p.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	return u, nil
}

// Static is a Provider holding one mutable user, used by the CLI where
// /login switches the signed-in identity.
type Static struct {
	mu   sync.RWMutex
	user *User
}

// NewStatic creates a Static provider. A nil user means signed out.
func NewStatic(u *User) *Static {
	s := &Static{}
	s.SetUser(u)
	return s
}

func (s *Static) CurrentUser(context.Context) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// SetUser replaces the signed-in user. A nil or empty-id user signs out.
func (s *Static) SetUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil || u.ID == "" {
		s.user = nil
		return
	}
	cp := *u
	s.user = &cp
}

// TokenTable maps bearer tokens to users for the HTTP API.
type TokenTable struct {
	entries []tokenEntry
}

type tokenEntry struct {
	token []byte
	user  User
}

// NewTokenTable builds a table from token → user. Empty tokens are ignored.
func NewTokenTable(tokens map[string]User) *TokenTable {
	t := &TokenTable{}
	for tok, u := range tokens {
		if tok == "" || u.ID == "" {
			continue
		}
		t.entries = append(t.entries, tokenEntry{token: []byte(tok), user: u})
	}
	return t
}

// Lookup returns the user for token. Every entry is compared in constant time.
func (t *TokenTable) Lookup(token string) (*User, bool) {
	var found *User
	candidate := []byte(token)
	for i := range t.entries {
		if subtle.ConstantTimeCompare(candidate, t.entries[i].token) == 1 {
			u := t.entries[i].user
			found = &u
		}
	}
	return found, found != nil
}

// Len returns the number of configured tokens.
func (t *TokenTable) Len() int { return len(t.entries) }

type ctxKey struct{}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the user attached by WithUser, if any.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}

// ContextProvider reads the user attached to the request context.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (*User, error) {
	return FromContext(ctx), nil
}
