package guard

import (
	"strings"
	"unicode"
)

// shortAllowList holds legitimate tasks shorter than MinTaskLen.
var shortAllowList = map[string]bool{
	"ad": true, "ads": true, "bio": true, "cv": true, "faq": true,
	"seo": true, "sql": true, "tos": true, "ux": true, "api": true,
}

const (
	repeatRunLimit    = 6
	consonantRunLimit = 10
	mixedMinLen       = 8
	mixedDigitRatio   = 0.3
)

// Classify reports why text does not look like a usable task, or "" when it
// is clear. It never calls out to anything and has no side effects.
func Classify(text string) string {
	t := strings.TrimSpace(StripControl(text))
	if t == "" {
		return "the task is empty"
	}

	runes := []rune(t)
	if len(runes) < MinTaskLen && !shortAllowList[strings.ToLower(t)] {
		return "the task is too short to act on"
	}

	var letters, digits int
	hasSpace := false
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsSpace(r):
			hasSpace = true
		}
	}
	if letters == 0 {
		return "the task has no words in it"
	}

	if hasRepeatedRun(runes, repeatRunLimit) {
		return "the task contains a long run of the same character"
	}

	if !hasSpace && len(runes) >= mixedMinLen && digits > 0 {
		if float64(digits)/float64(letters+digits) >= mixedDigitRatio {
			return "the task looks like a random mix of letters and numbers"
		}
	}

	if !hasSpace && hasVowellessRun(runes, consonantRunLimit) {
		return "the task looks like random keystrokes"
	}

	return ""
}

func hasRepeatedRun(runes []rune, limit int) bool {
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] && !unicode.IsSpace(runes[i]) {
			run++
			if run >= limit {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}

func hasVowellessRun(runes []rune, limit int) bool {
	run := 0
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			run = 0
			continue
		}
		if isVowel(r) {
			run = 0
			continue
		}
		run++
		if run >= limit {
			return true
		}
	}
	return false
}

func isVowel(r rune) bool {
	switch unicode.ToLower(r) {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	// Letters outside ASCII (accented vowels, non-Latin scripts) are not
	// judged; treat them as vowel-bearing.
	return r > unicode.MaxASCII
}
