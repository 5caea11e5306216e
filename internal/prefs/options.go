// Package prefs asks for missing generation preferences one key at a time,
// and hosts the legacy three-step tone/audience/domain wizard.
package prefs

import (
	"github.com/alexanderramin/promptforge/internal/domain"
)

// Option is one enumerated choice for a preference key. Value is what gets
// stored; Label is what is shown.
type Option struct {
	Label string
	Value string
}

func opts(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Label: v, Value: v}
	}
	return out
}

var optionTable = map[domain.PreferenceKey][]Option{
	domain.PrefTone:         opts("Professional", "Friendly", "Casual", "Persuasive", "Neutral"),
	domain.PrefAudience:     opts("General public", "Technical experts", "Executives", "Students", "Customers"),
	domain.PrefDomain:       opts("Marketing", "Software", "Education", "Finance", "Healthcare"),
	domain.PrefDefaultModel: opts("GPT-4o", "Claude", "Gemini", "Llama", "Any model"),
	domain.PrefTemperature: {
		{Label: "Precise (0.2)", Value: "0.2"},
		{Label: "Balanced (0.5)", Value: "0.5"},
		{Label: "Creative (0.8)", Value: "0.8"},
	},
	domain.PrefOutputFormat:       opts("Paragraphs", "Bulleted list", "Numbered steps", "Table", "JSON"),
	domain.PrefLanguage:           opts("English", "Spanish", "French", "German", "Portuguese"),
	domain.PrefDepth:              opts("Brief", "Standard", "In-depth"),
	domain.PrefCitationPreference: opts("No citations", "Inline citations", "Reference list"),
}

var questionText = map[domain.PreferenceKey]string{
	domain.PrefTone:               "What tone should the output have?",
	domain.PrefAudience:           "Who is the audience?",
	domain.PrefDomain:             "Which domain does this belong to?",
	domain.PrefDefaultModel:       "Which model will run the prompt?",
	domain.PrefTemperature:        "How creative should the model be (0 to 1)?",
	domain.PrefOutputFormat:       "What output format do you want?",
	domain.PrefLanguage:           "Which language should the output be in?",
	domain.PrefDepth:              "How detailed should it be?",
	domain.PrefCitationPreference: "How should sources be cited?",
	domain.PrefStyleGuidelines:    "Any style guidelines to follow?",
	domain.PrefPersonaHints:       "Should the model adopt a persona?",
}

// Options returns the enumerated choices for key. Free-text keys have none.
func Options(key domain.PreferenceKey) []Option {
	return append([]Option(nil), optionTable[key]...)
}

// Question returns the prompt shown when asking for key.
func Question(key domain.PreferenceKey) string {
	if q, ok := questionText[key]; ok {
		return q
	}
	return string(key) + "?"
}

// DefaultOrder is the order keys are asked in when none is configured.
var DefaultOrder = []domain.PreferenceKey{
	domain.PrefTone,
	domain.PrefAudience,
	domain.PrefOutputFormat,
	domain.PrefDepth,
	domain.PrefLanguage,
}

// KeysToAsk filters order down to the keys that have no value and are not
// flagged "do not ask again". Duplicates and unknown keys are dropped.
func KeysToAsk(p domain.Preferences, order []domain.PreferenceKey) []domain.PreferenceKey {
	known := make(map[domain.PreferenceKey]bool, len(domain.AllPreferenceKeys))
	for _, k := range domain.AllPreferenceKeys {
		known[k] = true
	}
	seen := make(map[domain.PreferenceKey]bool)
	var out []domain.PreferenceKey
	for _, k := range order {
		if !known[k] || seen[k] {
			continue
		}
		seen[k] = true
		if p.Has(k) || p.SkipsAsking(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

func optionIndex(key domain.PreferenceKey, value string) int {
	if value == "" {
		return -1
	}
	for i, o := range optionTable[key] {
		if o.Value == value || o.Label == value {
			return i
		}
	}
	return -1
}
