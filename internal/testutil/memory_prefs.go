package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// MemoryPreferences is an in-memory preference store keyed by scope.
type MemoryPreferences struct {
	mu   sync.Mutex
	rows map[string]domain.Preferences

	// SaveErr, when set, is returned by SavePreferences.
	SaveErr error
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{rows: make(map[string]domain.Preferences)}
}

func (m *MemoryPreferences) GetPreferences(_ context.Context, scope string) (domain.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[scope].Clone(), nil
}

func (m *MemoryPreferences) SavePreferences(_ context.Context, scope string, p domain.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.rows[scope] = p.Clone()
	return nil
}

// Seed stores p under scope without going through SavePreferences.
func (m *MemoryPreferences) Seed(scope string, p domain.Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[scope] = p.Clone()
}

// CompletePreferences has a value for every key asked by default.
func CompletePreferences() domain.Preferences {
	return domain.Preferences{
		Tone:         "Friendly",
		Audience:     "Developers",
		OutputFormat: "Paragraphs",
		Depth:        "Standard",
		Language:     "English",
	}
}
