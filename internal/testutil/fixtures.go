package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// History options
type HistoryOption func(*domain.HistoryEntry)

func WithHistoryUser(id string) HistoryOption {
	return func(e *domain.HistoryEntry) {
		e.UserID = id
	}
}

func WithHistorySource(s domain.PromptSource) HistoryOption {
	return func(e *domain.HistoryEntry) {
		e.Source = s
	}
}

func WithCreatedAt(t time.Time) HistoryOption {
	return func(e *domain.HistoryEntry) {
		e.CreatedAt = t
	}
}

func NewTestHistoryEntry(task string, opts ...HistoryOption) domain.HistoryEntry {
	e := domain.HistoryEntry{
		ID:        uuid.New().String(),
		UserID:    "user-1",
		Task:      task,
		Label:     task,
		Body:      "You are an expert. " + task + ".",
		Model:     "gpt-4o-mini",
		Source:    domain.PromptFromLLM,
		CreatedAt: time.Now().UTC(),
	}
	for _, o := range opts {
		o(&e)
	}
	return e
}

// Quota record options
type QuotaOption func(*domain.QuotaRecord)

func WithTier(t domain.Tier) QuotaOption {
	return func(r *domain.QuotaRecord) {
		r.Tier = t
	}
}

func WithQuota(generations, edits, clarifying int) QuotaOption {
	return func(r *domain.QuotaRecord) {
		r.Quota = domain.Counters{Generations: generations, Edits: edits, Clarifying: clarifying}
	}
}

func WithUsage(generations, edits, clarifying int) QuotaOption {
	return func(r *domain.QuotaRecord) {
		r.Usage = domain.Counters{Generations: generations, Edits: edits, Clarifying: clarifying}
	}
}

func WithPremiumFinals(n int) QuotaOption {
	return func(r *domain.QuotaRecord) {
		r.PremiumFinalsRemaining = n
	}
}

func WithTrialExpiry(t time.Time) QuotaOption {
	return func(r *domain.QuotaRecord) {
		r.TrialExpiresAt = &t
	}
}

func NewTestQuotaRecord(userID string, opts ...QuotaOption) domain.QuotaRecord {
	now := time.Now().UTC()
	r := domain.QuotaRecord{
		UserID:      userID,
		Tier:        domain.TierBasic,
		PeriodStart: now.AddDate(0, 0, -1),
		Quota:       domain.Counters{Generations: 10, Edits: 10, Clarifying: 10},
		UpdatedAt:   now,
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}
