package quota

import (
	"context"
	"sync"
	"time"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// MemoryStore is a mutex-guarded Store for single-process use and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]domain.QuotaRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.QuotaRecord)}
}

func (s *MemoryStore) Create(_ context.Context, rec domain.QuotaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.UserID]; !ok {
		s.records[rec.UserID] = copyRecord(rec)
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNoRecord
	}
	out := copyRecord(rec)
	return &out, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, expected, next domain.QuotaRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[expected.UserID]
	if !ok {
		return false, ErrNoRecord
	}
	if cur.Tier != expected.Tier || !cur.PeriodStart.Equal(expected.PeriodStart) ||
		cur.Usage != expected.Usage || cur.PremiumFinalsRemaining != expected.PremiumFinalsRemaining {
		return false, nil
	}
	s.records[expected.UserID] = copyRecord(next)
	return true, nil
}

func (s *MemoryStore) Increment(_ context.Context, userID string, kind domain.QuotaKind, now time.Time) (*domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNoRecord
	}
	if rec.Usage.Get(kind)+1 > rec.Quota.Get(kind) {
		return nil, ErrExhausted
	}
	switch kind {
	case domain.QuotaGeneration:
		rec.Usage.Generations++
	case domain.QuotaEdit:
		rec.Usage.Edits++
	case domain.QuotaClarifying:
		rec.Usage.Clarifying++
	default:
		return nil, ErrExhausted
	}
	rec.UpdatedAt = now
	s.records[userID] = rec
	out := copyRecord(rec)
	return &out, nil
}

func (s *MemoryStore) DecrementPremium(_ context.Context, userID string, now time.Time) (*domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNoRecord
	}
	if rec.PremiumFinalsRemaining <= 0 {
		return nil, ErrExhausted
	}
	rec.PremiumFinalsRemaining--
	rec.UpdatedAt = now
	s.records[userID] = rec
	out := copyRecord(rec)
	return &out, nil
}

func copyRecord(rec domain.QuotaRecord) domain.QuotaRecord {
	if rec.TrialExpiresAt != nil {
		t := *rec.TrialExpiresAt
		rec.TrialExpiresAt = &t
	}
	return rec
}
