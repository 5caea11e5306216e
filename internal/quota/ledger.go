// Package quota meters billing-cycle usage per user. All updates go through
// conditional writes in the Store so concurrent consumers for the same user
// never lose an update.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/domain"
)

var (
	// ErrNoRecord is returned by a Store when the user has no record yet.
	ErrNoRecord = errors.New("quota record not found")

	// ErrExhausted is returned by a Store when a conditional increment or
	// decrement would cross the allowance.
	ErrExhausted = errors.New("quota exhausted")

	// ErrContention indicates the record kept changing under the ledger.
	ErrContention = errors.New("quota record contention")
)

// Store persists quota records. Increment and DecrementPremium must be single
// conditional updates; CompareAndSwap must only write when the stored tier,
// period start, usage and premium slots still equal expected's.
type Store interface {
	Create(ctx context.Context, rec domain.QuotaRecord) error
	Get(ctx context.Context, userID string) (*domain.QuotaRecord, error)
	CompareAndSwap(ctx context.Context, expected, next domain.QuotaRecord) (bool, error)
	Increment(ctx context.Context, userID string, kind domain.QuotaKind, now time.Time) (*domain.QuotaRecord, error)
	DecrementPremium(ctx context.Context, userID string, now time.Time) (*domain.QuotaRecord, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

const maxCASAttempts = 5

// Ledger applies tier rules on top of a Store.
type Ledger struct {
	store Store
	cfg   Config
	clock Clock
}

// NewLedger creates a Ledger using the wall clock.
func NewLedger(store Store, cfg Config) *Ledger {
	return NewLedgerWithClock(store, cfg, realClock{})
}

// NewLedgerWithClock creates a Ledger with a custom clock (for testing).
func NewLedgerWithClock(store Store, cfg Config, clock Clock) *Ledger {
	if cfg.Tiers == nil {
		cfg.Tiers = DefaultTiers()
	}
	return &Ledger{store: store, cfg: cfg, clock: clock}
}

// Tiers exposes the tier table in use.
func (l *Ledger) Tiers() TierTable { return l.cfg.Tiers }

// Record returns the user's record with pending transitions applied,
// creating it with trial defaults on first use.
func (l *Ledger) Record(ctx context.Context, userID string) (domain.QuotaRecord, error) {
	return l.load(ctx, userID)
}

// Consume uses one unit of kind, or returns QUOTA_EXCEEDED{kind}.
func (l *Ledger) Consume(ctx context.Context, userID string, kind domain.QuotaKind) (domain.QuotaRecord, error) {
	if _, err := l.load(ctx, userID); err != nil {
		return domain.QuotaRecord{}, err
	}
	rec, err := l.store.Increment(ctx, userID, kind, l.clock.Now())
	if errors.Is(err, ErrExhausted) {
		return domain.QuotaRecord{}, apperr.QuotaExceeded(string(kind))
	}
	if err != nil {
		return domain.QuotaRecord{}, fmt.Errorf("consuming %s quota for %s: %w", kind, userID, err)
	}
	return *rec, nil
}

// ConsumePremiumSlot uses one premium-final slot, independent of the
// generation counter.
func (l *Ledger) ConsumePremiumSlot(ctx context.Context, userID string) (domain.QuotaRecord, error) {
	if _, err := l.load(ctx, userID); err != nil {
		return domain.QuotaRecord{}, err
	}
	rec, err := l.store.DecrementPremium(ctx, userID, l.clock.Now())
	if errors.Is(err, ErrExhausted) {
		return domain.QuotaRecord{}, apperr.QuotaExceeded("premium")
	}
	if err != nil {
		return domain.QuotaRecord{}, fmt.Errorf("consuming premium slot for %s: %w", userID, err)
	}
	return *rec, nil
}

// ChangeTier moves a user to tier, starting a fresh cycle with that tier's
// allowances. Used by the billing integration.
func (l *Ledger) ChangeTier(ctx context.Context, userID string, tier domain.Tier) (domain.QuotaRecord, error) {
	if !domain.ValidTiers[tier] {
		return domain.QuotaRecord{}, fmt.Errorf("unknown tier %q", tier)
	}
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := l.load(ctx, userID)
		if err != nil {
			return domain.QuotaRecord{}, err
		}
		now := l.clock.Now()
		limits := l.cfg.Tiers.Limits(tier)
		next := cur
		next.Tier = tier
		next.PeriodStart = now
		next.Quota = limits.Counters()
		next.Usage = domain.Counters{}
		next.PremiumFinalsRemaining = limits.PremiumFinals
		if tier != domain.TierTrial {
			next.TrialExpiresAt = nil
		}
		next.UpdatedAt = now

		ok, err := l.store.CompareAndSwap(ctx, cur, next)
		if err != nil {
			return domain.QuotaRecord{}, fmt.Errorf("changing tier for %s: %w", userID, err)
		}
		if ok {
			return next, nil
		}
	}
	return domain.QuotaRecord{}, ErrContention
}

func (l *Ledger) load(ctx context.Context, userID string) (domain.QuotaRecord, error) {
	if userID == "" {
		return domain.QuotaRecord{}, apperr.Unauthenticated()
	}
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		now := l.clock.Now()
		rec, err := l.store.Get(ctx, userID)
		if errors.Is(err, ErrNoRecord) {
			if err := l.store.Create(ctx, NewTrialRecord(l.cfg, userID, now)); err != nil {
				return domain.QuotaRecord{}, fmt.Errorf("creating quota record for %s: %w", userID, err)
			}
			continue
		}
		if err != nil {
			return domain.QuotaRecord{}, fmt.Errorf("loading quota record for %s: %w", userID, err)
		}

		next, changed := Transition(l.cfg, *rec, now)
		if !changed {
			return *rec, nil
		}
		ok, err := l.store.CompareAndSwap(ctx, *rec, next)
		if err != nil {
			return domain.QuotaRecord{}, fmt.Errorf("updating quota record for %s: %w", userID, err)
		}
		if ok {
			return next, nil
		}
	}
	return domain.QuotaRecord{}, ErrContention
}
