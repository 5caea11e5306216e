package prefs

import (
	"strconv"

	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
)

// Outcome reports what an answer did to the flow.
type Outcome int

const (
	Ignored Outcome = iota
	Advanced
	Complete
)

// BackOutcome reports where Back went.
type BackOutcome int

const (
	BackIgnored BackOutcome = iota
	// BackStepped means the previous preference key is current again.
	BackStepped
	// BackToClarifying means Back was pressed on the first key; the caller
	// hands control back to the clarifying engine.
	BackToClarifying
)

// Engine drives the preference phase over the conversation state.
type Engine struct {
	st *domain.ConversationState
}

// New binds an engine to st.
func New(st *domain.ConversationState) *Engine {
	return &Engine{st: st}
}

// Active reports whether a preference key is waiting for an answer.
func (e *Engine) Active() bool {
	return e.st.Stage == domain.StagePreferences && e.st.PreferenceIndex < len(e.st.PreferenceKeys)
}

// Begin starts asking keys in order.
func (e *Engine) Begin(keys []domain.PreferenceKey) {
	e.st.PreferenceKeys = append([]domain.PreferenceKey(nil), keys...)
	e.st.PreferenceIndex = 0
	e.st.PreferenceAnswers = nil
	e.st.Stage = domain.StagePreferences
	e.restoreFocus()
}

// Reset clears all preference-phase state.
func (e *Engine) Reset() {
	e.st.PreferenceKeys = nil
	e.st.PreferenceIndex = 0
	e.st.PreferenceAnswers = nil
}

// Answer records text for the current key. Temperature answers are parsed
// and clamped to [0,1]; anything non-numeric is recorded as skipped.
func (e *Engine) Answer(text string) Outcome {
	key, ok := e.st.CurrentPreferenceKey()
	if !ok || !e.Active() {
		return Ignored
	}
	value := guard.Sanitize(text, guard.MaxPreferenceLen)
	if key == domain.PrefTemperature && value != "" {
		f, err := domain.ParseTemperature(value)
		if err != nil {
			value = ""
		} else {
			value = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return e.advance(key, value, true)
}

// Skip records an empty value and advances without focusing the input.
func (e *Engine) Skip() Outcome {
	key, ok := e.st.CurrentPreferenceKey()
	if !ok || !e.Active() {
		return Ignored
	}
	return e.advance(key, "", false)
}

// SelectOption answers with the value of option i.
func (e *Engine) SelectOption(i int) Outcome {
	key, ok := e.st.CurrentPreferenceKey()
	options := optionTable[key]
	if !ok || !e.Active() || i < 0 || i >= len(options) {
		return Ignored
	}
	return e.Answer(options[i].Value)
}

// Back rewinds one key, or reports BackToClarifying on the first key.
func (e *Engine) Back() BackOutcome {
	if e.st.Stage != domain.StagePreferences {
		return BackIgnored
	}
	if e.st.PreferenceIndex == 0 {
		return BackToClarifying
	}
	e.st.PreferenceIndex--
	e.restoreFocus()
	return BackStepped
}

// Collected returns the non-empty answers as a preference patch.
func (e *Engine) Collected() domain.Preferences {
	var out domain.Preferences
	for _, a := range e.st.PreferenceAnswers {
		if a.Value == "" {
			continue
		}
		// Values were validated when recorded.
		_ = out.Set(a.Key, a.Value)
	}
	return out
}

// CurrentOptions returns the choices for the current key.
func (e *Engine) CurrentOptions() []Option {
	key, ok := e.st.CurrentPreferenceKey()
	if !ok {
		return nil
	}
	return Options(key)
}

// Choices lists the focusable slots: options, input, back.
func (e *Engine) Choices() []int {
	if !e.Active() {
		return nil
	}
	n := len(e.CurrentOptions())
	out := make([]int, 0, n+2)
	for i := 0; i < n; i++ {
		out = append(out, i)
	}
	return append(out, domain.ChoiceInput, domain.ChoiceBack)
}

// MoveSelection moves the highlighted slot by delta, wrapping around.
func (e *Engine) MoveSelection(delta int) {
	slots := e.Choices()
	if len(slots) == 0 {
		return
	}
	pos := 0
	for i, s := range slots {
		if s == e.st.OptionChoice {
			pos = i
			break
		}
	}
	pos = ((pos+delta)%len(slots) + len(slots)) % len(slots)
	e.st.OptionChoice = slots[pos]
}

func (e *Engine) advance(key domain.PreferenceKey, value string, focusInput bool) Outcome {
	rec := domain.PreferenceAnswer{Key: key, Value: value}
	if i := e.st.PreferenceIndex; i < len(e.st.PreferenceAnswers) {
		e.st.PreferenceAnswers[i] = rec
	} else {
		e.st.PreferenceAnswers = append(e.st.PreferenceAnswers, rec)
	}
	e.st.PreferenceIndex++
	e.st.InputPrefill = ""

	if e.st.PreferenceIndex >= len(e.st.PreferenceKeys) {
		e.st.OptionChoice = domain.ChoiceInput
		return Complete
	}
	e.restoreFocus()
	if !focusInput && e.st.OptionChoice == domain.ChoiceInput {
		e.st.OptionChoice = domain.ChoiceBack
	}
	return Advanced
}

func (e *Engine) restoreFocus() {
	key, ok := e.st.CurrentPreferenceKey()
	if !ok {
		return
	}
	saved := ""
	if i := e.st.PreferenceIndex; i < len(e.st.PreferenceAnswers) {
		saved = e.st.PreferenceAnswers[i].Value
	}
	e.st.InputPrefill = ""
	if idx := optionIndex(key, saved); idx >= 0 {
		e.st.OptionChoice = idx
		return
	}
	if saved != "" {
		e.st.OptionChoice = domain.ChoiceInput
		e.st.InputPrefill = saved
		return
	}
	if len(optionTable[key]) > 0 {
		e.st.OptionChoice = 0
		return
	}
	e.st.OptionChoice = domain.ChoiceInput
}
