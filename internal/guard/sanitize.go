// Package guard validates and sanitizes user-supplied and model-supplied text
// before it reaches the provider or storage.
package guard

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alexanderramin/promptforge/internal/apperr"
)

// Length limits, in runes.
const (
	MinTaskLen       = 4
	MaxTaskLen       = 4000
	MaxPreferenceLen = 300
	MaxAnswerLen     = 800
	MaxQuestionLen   = 400
	MaxOptionLen     = 120
	MaxOutputLen     = 12000
	MaxEditLen       = 1000
)

// StripControl removes control characters except newline and tab.
func StripControl(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}

// Clip truncates s to at most max runes.
func Clip(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}

// Sanitize strips control characters, trims and caps s.
func Sanitize(s string, max int) string {
	return Clip(strings.TrimSpace(StripControl(s)), max)
}

// ValidateTask sanitizes a task and enforces the length window. Over-long
// tasks are rejected rather than truncated; short tasks pass only when they
// are on the short allow-list.
func ValidateTask(s string) (string, error) {
	t := strings.TrimSpace(StripControl(s))
	n := utf8.RuneCountInString(t)
	if n < MinTaskLen && !shortAllowList[strings.ToLower(t)] {
		return "", apperr.InvalidInput(apperr.ReasonTooShort)
	}
	if n > MaxTaskLen {
		return "", apperr.InvalidInput(apperr.ReasonTooLong)
	}
	return t, nil
}

// Label derives a short display label from a task: first line, capped.
func Label(task string) string {
	line := strings.TrimSpace(task)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	const max = 60
	if utf8.RuneCountInString(line) <= max {
		return line
	}
	return Clip(line, max-1) + "…"
}
