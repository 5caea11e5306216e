package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// FormatQuota renders a ledger record: tier, usage per kind and the
// premium allowance.
func FormatQuota(rec domain.QuotaRecord, cycle time.Duration, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", Bold(rec.UserID), TierBadge(rec.Tier))

	rows := [][]string{
		{"Generations", RenderUsage(rec.Usage.Generations, rec.Quota.Generations, 20)},
		{"Edits", RenderUsage(rec.Usage.Edits, rec.Quota.Edits, 20)},
		{"Questions", RenderUsage(rec.Usage.Clarifying, rec.Quota.Clarifying, 20)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-12s %s\n", r[0], r[1])
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-12s %d\n", "Premium", rec.PremiumFinalsRemaining)
	if cycle > 0 {
		fmt.Fprintf(&b, "  %-12s %s\n", "Resets", HumanDate(rec.PeriodStart.Add(cycle), now))
	}
	if rec.TrialExpiresAt != nil && rec.Tier == domain.TierTrial {
		fmt.Fprintf(&b, "  %-12s %s\n", "Trial ends", HumanDate(*rec.TrialExpiresAt, now))
	}
	return b.String()
}

// FormatPreferences lists every preference key with its value, marking keys
// that are never asked.
func FormatPreferences(scope string, p domain.Preferences) string {
	var b strings.Builder
	b.WriteString(Header("Preferences") + "  " + Dim(scope) + "\n")
	skip := make(map[domain.PreferenceKey]bool, len(p.DoNotAsk))
	for _, k := range p.DoNotAsk {
		skip[k] = true
	}
	for _, k := range domain.AllPreferenceKeys {
		v, ok := p.Value(k)
		if !ok {
			v = Dim("(not set)")
		}
		line := fmt.Sprintf("  %-20s %s", string(k), v)
		if skip[k] {
			line += Dim("  [don't ask]")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
