package quota

import (
	"time"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// TierLimits defines one tier's per-cycle allowances.
type TierLimits struct {
	Generations   int `yaml:"generations"`
	Edits         int `yaml:"edits"`
	Clarifying    int `yaml:"clarifying"`
	PremiumFinals int `yaml:"premium_finals"`
}

// Counters converts the allowances into a quota counter set.
func (t TierLimits) Counters() domain.Counters {
	return domain.Counters{
		Generations: t.Generations,
		Edits:       t.Edits,
		Clarifying:  t.Clarifying,
	}
}

// TierTable maps each tier to its limits.
type TierTable map[domain.Tier]TierLimits

// DefaultTiers returns the built-in tier table.
func DefaultTiers() TierTable {
	return TierTable{
		domain.TierTrial:    {Generations: 20, Edits: 20, Clarifying: 40, PremiumFinals: 3},
		domain.TierBasic:    {Generations: 200, Edits: 200, Clarifying: 400, PremiumFinals: 10},
		domain.TierAdvanced: {Generations: 1000, Edits: 1000, Clarifying: 2000, PremiumFinals: 50},
		domain.TierExpired:  {},
	}
}

// Limits returns the limits for tier. Unknown tiers get nothing.
func (t TierTable) Limits(tier domain.Tier) TierLimits {
	return t[tier]
}

// AllowsPremium reports whether tier carries any premium allowance.
func (t TierTable) AllowsPremium(tier domain.Tier) bool {
	return t[tier].PremiumFinals > 0
}

// Config holds ledger timing and the tier table.
type Config struct {
	Cycle       time.Duration `yaml:"cycle"`
	TrialLength time.Duration `yaml:"trial_length"`
	Tiers       TierTable     `yaml:"tiers"`
}

// DefaultConfig returns a 30-day cycle and a 14-day trial.
func DefaultConfig() Config {
	return Config{
		Cycle:       30 * 24 * time.Hour,
		TrialLength: 14 * 24 * time.Hour,
		Tiers:       DefaultTiers(),
	}
}

// NewTrialRecord builds the record lazily created on a user's first use.
func NewTrialRecord(cfg Config, userID string, now time.Time) domain.QuotaRecord {
	limits := cfg.Tiers.Limits(domain.TierTrial)
	expires := now.Add(cfg.TrialLength)
	return domain.QuotaRecord{
		UserID:                 userID,
		Tier:                   domain.TierTrial,
		PeriodStart:            now,
		Quota:                  limits.Counters(),
		PremiumFinalsRemaining: limits.PremiumFinals,
		TrialExpiresAt:         &expires,
		UpdatedAt:              now,
	}
}

// Transition applies trial expiry and then cycle reset to rec as of now.
// It reports whether anything changed. Expiry zeroes the quotas; it never
// removes the record.
func Transition(cfg Config, rec domain.QuotaRecord, now time.Time) (domain.QuotaRecord, bool) {
	next := rec
	changed := false

	if rec.Tier == domain.TierTrial && rec.TrialExpiresAt != nil && !now.Before(*rec.TrialExpiresAt) {
		next.Tier = domain.TierExpired
		next.Quota = cfg.Tiers.Limits(domain.TierExpired).Counters()
		next.PremiumFinalsRemaining = cfg.Tiers.Limits(domain.TierExpired).PremiumFinals
		changed = true
	}

	if cfg.Cycle > 0 && now.Sub(rec.PeriodStart) >= cfg.Cycle {
		limits := cfg.Tiers.Limits(next.Tier)
		next.PeriodStart = now
		next.Usage = domain.Counters{}
		next.Quota = limits.Counters()
		next.PremiumFinalsRemaining = limits.PremiumFinals
		changed = true
	}

	if changed {
		next.UpdatedAt = now
	}
	return next, changed
}
