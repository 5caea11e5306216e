package domain

import "time"

// Tier is a subscription level.
type Tier string

const (
	TierTrial    Tier = "trial"
	TierBasic    Tier = "basic"
	TierAdvanced Tier = "advanced"
	TierExpired  Tier = "expired"
)

// ValidTiers is the canonical set of accepted tier strings.
var ValidTiers = map[Tier]bool{
	TierTrial: true, TierBasic: true, TierAdvanced: true, TierExpired: true,
}

// QuotaKind names a metered operation.
type QuotaKind string

const (
	QuotaGeneration QuotaKind = "generation"
	QuotaEdit       QuotaKind = "edit"
	QuotaClarifying QuotaKind = "clarifying"
)

// Counters holds one value per metered operation.
type Counters struct {
	Generations int `json:"generations"`
	Edits       int `json:"edits"`
	Clarifying  int `json:"clarifying"`
}

// Get returns the counter for kind.
func (c Counters) Get(kind QuotaKind) int {
	switch kind {
	case QuotaGeneration:
		return c.Generations
	case QuotaEdit:
		return c.Edits
	case QuotaClarifying:
		return c.Clarifying
	}
	return 0
}

// QuotaRecord is a user's billing-cycle usage ledger entry.
type QuotaRecord struct {
	UserID                 string
	Tier                   Tier
	PeriodStart            time.Time
	Quota                  Counters
	Usage                  Counters
	PremiumFinalsRemaining int
	TrialExpiresAt         *time.Time
	UpdatedAt              time.Time
}

// Remaining returns how many units of kind are left this period.
func (r QuotaRecord) Remaining(kind QuotaKind) int {
	left := r.Quota.Get(kind) - r.Usage.Get(kind)
	if left < 0 {
		return 0
	}
	return left
}
