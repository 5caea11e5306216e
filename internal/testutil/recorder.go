package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// Recorder collects history entries and analytics events in memory.
type Recorder struct {
	mu      sync.Mutex
	history []domain.HistoryEntry
	events  []domain.Event

	// EventErr, when set, is returned by RecordEvent.
	EventErr error
}

func (r *Recorder) AddHistory(_ context.Context, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, entry)
	return nil
}

func (r *Recorder) RecordEvent(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.EventErr != nil {
		return r.EventErr
	}
	r.events = append(r.events, ev)
	return nil
}

// History returns a copy of the recorded history entries.
func (r *Recorder) History() []domain.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.HistoryEntry(nil), r.history...)
}

// EventTypes returns the recorded event types in order.
func (r *Recorder) EventTypes() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
