package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"today", now.Add(-2 * time.Hour), "Today"},
		{"yesterday", now.Add(-24 * time.Hour), "Yesterday"},
		{"older", time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), "Sep 30, 2025"},
		{"future", time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), "Apr 9, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanDate(tt.input, now))
		})
	}
}

func TestHumanTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"seconds", now.Add(-20 * time.Second), "Just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-72 * time.Hour), "Mar 7, 2026"},
		{"future", now.Add(48 * time.Hour), "Mar 12, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanTimestamp(tt.input, now))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "…", Truncate("abcdefgh", 1))
	assert.Equal(t, "naïv…", Truncate("naïveté", 5))
	assert.Equal(t, "unbounded", Truncate("unbounded", 0))
}

func TestTruncID(t *testing.T) {
	assert.Contains(t, TruncID("0123456789abcdef"), "01234567")
	assert.NotContains(t, TruncID("0123456789abcdef"), "89")
	assert.Contains(t, TruncID("abc"), "abc")
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n\n  b", Indent("a\n\nb", "  "))
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable([]string{"ID", "TASK"}, [][]string{
		{"1", "short"},
		{"22222", "longer task"},
	})
	assert.Contains(t, out, "ID     TASK")
	assert.Contains(t, out, "1      short")
	assert.Contains(t, out, "22222  longer task")
	assert.Empty(t, RenderTable(nil, nil))
}
