package draft

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps the draft in memory. It backs tests and sessions run
// without a database.
type MemoryBackend struct {
	mu      sync.Mutex
	data    []byte
	savedAt time.Time
	writes  int
}

func (m *MemoryBackend) LoadDraft(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBackend) SaveDraft(_ context.Context, data []byte, savedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.savedAt = savedAt
	m.writes++
	return nil
}

func (m *MemoryBackend) DeleteDraft(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.savedAt = time.Time{}
	return nil
}

// Writes returns how many times SaveDraft was called.
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Raw returns the stored bytes.
func (m *MemoryBackend) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Put stores data verbatim.
func (m *MemoryBackend) Put(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}
