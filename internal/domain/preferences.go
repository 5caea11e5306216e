package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PreferenceKey names one reusable generation setting.
type PreferenceKey string

const (
	PrefTone               PreferenceKey = "tone"
	PrefAudience           PreferenceKey = "audience"
	PrefDomain             PreferenceKey = "domain"
	PrefDefaultModel       PreferenceKey = "defaultModel"
	PrefTemperature        PreferenceKey = "temperature"
	PrefOutputFormat       PreferenceKey = "outputFormat"
	PrefLanguage           PreferenceKey = "language"
	PrefDepth              PreferenceKey = "depth"
	PrefCitationPreference PreferenceKey = "citationPreference"
	PrefStyleGuidelines    PreferenceKey = "styleGuidelines"
	PrefPersonaHints       PreferenceKey = "personaHints"
)

// AllPreferenceKeys is the canonical key order.
var AllPreferenceKeys = []PreferenceKey{
	PrefTone, PrefAudience, PrefDomain, PrefDefaultModel, PrefTemperature,
	PrefOutputFormat, PrefLanguage, PrefDepth, PrefCitationPreference,
	PrefStyleGuidelines, PrefPersonaHints,
}

// ParsePreferenceKey matches s case-insensitively against the known keys.
func ParsePreferenceKey(s string) (PreferenceKey, error) {
	for _, k := range AllPreferenceKeys {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown preference key %q", s)
}

// Preferences holds reusable generation settings. Empty strings and a nil
// Temperature mean "not set".
type Preferences struct {
	Tone               string          `json:"tone,omitempty" yaml:"tone,omitempty"`
	Audience           string          `json:"audience,omitempty" yaml:"audience,omitempty"`
	Domain             string          `json:"domain,omitempty" yaml:"domain,omitempty"`
	DefaultModel       string          `json:"defaultModel,omitempty" yaml:"default_model,omitempty"`
	Temperature        *float64        `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	OutputFormat       string          `json:"outputFormat,omitempty" yaml:"output_format,omitempty"`
	Language           string          `json:"language,omitempty" yaml:"language,omitempty"`
	Depth              string          `json:"depth,omitempty" yaml:"depth,omitempty"`
	CitationPreference string          `json:"citationPreference,omitempty" yaml:"citation_preference,omitempty"`
	StyleGuidelines    string          `json:"styleGuidelines,omitempty" yaml:"style_guidelines,omitempty"`
	PersonaHints       string          `json:"personaHints,omitempty" yaml:"persona_hints,omitempty"`
	DoNotAsk           []PreferenceKey `json:"doNotAsk,omitempty" yaml:"do_not_ask,omitempty"`
}

// Value returns the string form of key's value and whether it is set.
func (p Preferences) Value(key PreferenceKey) (string, bool) {
	if key == PrefTemperature {
		if p.Temperature == nil {
			return "", false
		}
		return strconv.FormatFloat(*p.Temperature, 'f', -1, 64), true
	}
	ptr := p.field(key)
	if ptr == nil || *ptr == "" {
		return "", false
	}
	return *ptr, true
}

// Has reports whether key has a value.
func (p Preferences) Has(key PreferenceKey) bool {
	_, ok := p.Value(key)
	return ok
}

// Set assigns value to key. Temperature values must parse as floats and are
// clamped to [0,1]. An empty value clears the key.
func (p *Preferences) Set(key PreferenceKey, value string) error {
	value = strings.TrimSpace(value)
	if key == PrefTemperature {
		if value == "" {
			p.Temperature = nil
			return nil
		}
		f, err := ParseTemperature(value)
		if err != nil {
			return err
		}
		p.Temperature = &f
		return nil
	}
	ptr := p.field(key)
	if ptr == nil {
		return fmt.Errorf("unknown preference key %q", key)
	}
	*ptr = value
	return nil
}

// SkipsAsking reports whether key is flagged "do not ask again".
func (p Preferences) SkipsAsking(key PreferenceKey) bool {
	for _, k := range p.DoNotAsk {
		if k == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := p
	out.Temperature = CoalesceFloat(p.Temperature)
	if p.DoNotAsk != nil {
		out.DoNotAsk = append([]PreferenceKey(nil), p.DoNotAsk...)
	}
	return out
}

// IsZero reports whether no key is set.
func (p Preferences) IsZero() bool {
	for _, k := range AllPreferenceKeys {
		if p.Has(k) {
			return false
		}
	}
	return len(p.DoNotAsk) == 0
}

func (p *Preferences) field(key PreferenceKey) *string {
	switch key {
	case PrefTone:
		return &p.Tone
	case PrefAudience:
		return &p.Audience
	case PrefDomain:
		return &p.Domain
	case PrefDefaultModel:
		return &p.DefaultModel
	case PrefOutputFormat:
		return &p.OutputFormat
	case PrefLanguage:
		return &p.Language
	case PrefDepth:
		return &p.Depth
	case PrefCitationPreference:
		return &p.CitationPreference
	case PrefStyleGuidelines:
		return &p.StyleGuidelines
	case PrefPersonaHints:
		return &p.PersonaHints
	}
	return nil
}

// MergePreferences overlays patch onto base. Set fields in patch win; the
// do-not-ask lists are unioned. Neither input is modified.
func MergePreferences(base, patch Preferences) Preferences {
	out := Preferences{
		Tone:               CoalesceStr(patch.Tone, base.Tone),
		Audience:           CoalesceStr(patch.Audience, base.Audience),
		Domain:             CoalesceStr(patch.Domain, base.Domain),
		DefaultModel:       CoalesceStr(patch.DefaultModel, base.DefaultModel),
		Temperature:        CoalesceFloat(patch.Temperature, base.Temperature),
		OutputFormat:       CoalesceStr(patch.OutputFormat, base.OutputFormat),
		Language:           CoalesceStr(patch.Language, base.Language),
		Depth:              CoalesceStr(patch.Depth, base.Depth),
		CitationPreference: CoalesceStr(patch.CitationPreference, base.CitationPreference),
		StyleGuidelines:    CoalesceStr(patch.StyleGuidelines, base.StyleGuidelines),
		PersonaHints:       CoalesceStr(patch.PersonaHints, base.PersonaHints),
	}
	seen := make(map[PreferenceKey]bool)
	for _, list := range [][]PreferenceKey{base.DoNotAsk, patch.DoNotAsk} {
		for _, k := range list {
			if !seen[k] {
				seen[k] = true
				out.DoNotAsk = append(out.DoNotAsk, k)
			}
		}
	}
	return out
}

// ParseTemperature parses s as a float and clamps it to [0,1].
func ParseTemperature(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("temperature must be a number: %w", err)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("temperature must be a number")
	}
	return ClampTemperature(f), nil
}

// ClampTemperature bounds f to [0,1].
func ClampTemperature(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// PreferenceAnswer is one key/value collected by the preference engine.
// An empty Value means the key was skipped.
type PreferenceAnswer struct {
	Key   PreferenceKey `json:"key"`
	Value string        `json:"value"`
}
