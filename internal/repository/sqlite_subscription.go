package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/promptforge/internal/db"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/quota"
)

// SQLiteSubscriptionRepo implements quota.Store on the subscriptions table.
// Every write is a single conditional statement, so concurrent consumers
// never push usage past the allowance.
type SQLiteSubscriptionRepo struct {
	db db.DBTX
}

var _ quota.Store = (*SQLiteSubscriptionRepo)(nil)

// NewSQLiteSubscriptionRepo creates a new SQLiteSubscriptionRepo.
func NewSQLiteSubscriptionRepo(conn db.DBTX) *SQLiteSubscriptionRepo {
	return &SQLiteSubscriptionRepo{db: conn}
}

const subscriptionColumns = `user_id, tier, period_start,
	quota_generations, quota_edits, quota_clarifying,
	usage_generations, usage_edits, usage_clarifying,
	premium_finals_remaining, trial_expires_at, updated_at`

var usageColumn = map[domain.QuotaKind][2]string{
	domain.QuotaGeneration: {"usage_generations", "quota_generations"},
	domain.QuotaEdit:       {"usage_edits", "quota_edits"},
	domain.QuotaClarifying: {"usage_clarifying", "quota_clarifying"},
}

// Create inserts rec unless the user already has a record.
func (r *SQLiteSubscriptionRepo) Create(ctx context.Context, rec domain.QuotaRecord) error {
	query := `INSERT OR IGNORE INTO subscriptions (` + subscriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.UserID,
		string(rec.Tier),
		formatTime(rec.PeriodStart),
		rec.Quota.Generations,
		rec.Quota.Edits,
		rec.Quota.Clarifying,
		rec.Usage.Generations,
		rec.Usage.Edits,
		rec.Usage.Clarifying,
		rec.PremiumFinalsRemaining,
		nullableTimeToString(rec.TrialExpiresAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting subscription for %s: %w", rec.UserID, err)
	}
	return nil
}

func (r *SQLiteSubscriptionRepo) Get(ctx context.Context, userID string) (*domain.QuotaRecord, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = ?`
	rec, err := scanSubscription(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, quota.ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("scanning subscription for %s: %w", userID, err)
	}
	return rec, nil
}

// CompareAndSwap replaces the record only while its tier, period start and
// counters still match expected, so a concurrent Increment is never lost.
func (r *SQLiteSubscriptionRepo) CompareAndSwap(ctx context.Context, expected, next domain.QuotaRecord) (bool, error) {
	query := `UPDATE subscriptions SET
		tier = ?, period_start = ?,
		quota_generations = ?, quota_edits = ?, quota_clarifying = ?,
		usage_generations = ?, usage_edits = ?, usage_clarifying = ?,
		premium_finals_remaining = ?, trial_expires_at = ?, updated_at = ?
		WHERE user_id = ? AND tier = ? AND period_start = ?
			AND usage_generations = ? AND usage_edits = ? AND usage_clarifying = ?
			AND premium_finals_remaining = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(next.Tier),
		formatTime(next.PeriodStart),
		next.Quota.Generations,
		next.Quota.Edits,
		next.Quota.Clarifying,
		next.Usage.Generations,
		next.Usage.Edits,
		next.Usage.Clarifying,
		next.PremiumFinalsRemaining,
		nullableTimeToString(next.TrialExpiresAt),
		formatTime(next.UpdatedAt),
		expected.UserID,
		string(expected.Tier),
		formatTime(expected.PeriodStart),
		expected.Usage.Generations,
		expected.Usage.Edits,
		expected.Usage.Clarifying,
		expected.PremiumFinalsRemaining,
	)
	if err != nil {
		return false, fmt.Errorf("swapping subscription for %s: %w", expected.UserID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking swap for %s: %w", expected.UserID, err)
	}
	if n == 1 {
		return true, nil
	}
	return false, r.mustExist(ctx, expected.UserID)
}

// Increment adds one unit of kind when usage stays within the quota.
func (r *SQLiteSubscriptionRepo) Increment(ctx context.Context, userID string, kind domain.QuotaKind, now time.Time) (*domain.QuotaRecord, error) {
	cols, ok := usageColumn[kind]
	if !ok {
		return nil, quota.ErrExhausted
	}
	usage, limit := cols[0], cols[1]
	query := `UPDATE subscriptions
		SET ` + usage + ` = ` + usage + ` + 1, updated_at = ?
		WHERE user_id = ? AND ` + usage + ` + 1 <= ` + limit + `
		RETURNING ` + subscriptionColumns
	return r.conditionalUpdate(ctx, userID, query, formatTime(now), userID)
}

// DecrementPremium uses one premium-final slot when any remain.
func (r *SQLiteSubscriptionRepo) DecrementPremium(ctx context.Context, userID string, now time.Time) (*domain.QuotaRecord, error) {
	query := `UPDATE subscriptions
		SET premium_finals_remaining = premium_finals_remaining - 1, updated_at = ?
		WHERE user_id = ? AND premium_finals_remaining > 0
		RETURNING ` + subscriptionColumns
	return r.conditionalUpdate(ctx, userID, query, formatTime(now), userID)
}

func (r *SQLiteSubscriptionRepo) conditionalUpdate(ctx context.Context, userID, query string, args ...any) (*domain.QuotaRecord, error) {
	rec, err := scanSubscription(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		if err := r.mustExist(ctx, userID); err != nil {
			return nil, err
		}
		return nil, quota.ErrExhausted
	}
	if err != nil {
		return nil, fmt.Errorf("updating subscription for %s: %w", userID, err)
	}
	return rec, nil
}

func (r *SQLiteSubscriptionRepo) mustExist(ctx context.Context, userID string) error {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return fmt.Errorf("checking subscription for %s: %w", userID, err)
	}
	if n == 0 {
		return quota.ErrNoRecord
	}
	return nil
}

func scanSubscription(row *sql.Row) (*domain.QuotaRecord, error) {
	var (
		rec                    domain.QuotaRecord
		tier, start, updatedAt string
		trialExpires           sql.NullString
	)
	err := row.Scan(
		&rec.UserID,
		&tier,
		&start,
		&rec.Quota.Generations,
		&rec.Quota.Edits,
		&rec.Quota.Clarifying,
		&rec.Usage.Generations,
		&rec.Usage.Edits,
		&rec.Usage.Clarifying,
		&rec.PremiumFinalsRemaining,
		&trialExpires,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Tier = domain.Tier(tier)
	if rec.PeriodStart, err = parseTime(start); err != nil {
		return nil, fmt.Errorf("parsing period start: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	rec.TrialExpiresAt = parseNullableTime(trialExpires)
	return &rec, nil
}
