package prefs

import (
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
)

// WizardSteps is the fixed order of the legacy preference form.
var WizardSteps = []domain.PreferenceKey{domain.PrefTone, domain.PrefAudience, domain.PrefDomain}

// Wizard runs the legacy tone/audience/domain form. Unlike the preference
// engine, its result is meant to be saved explicitly by the caller.
type Wizard struct {
	st *domain.ConversationState
}

// NewWizard binds a wizard to st.
func NewWizard(st *domain.ConversationState) *Wizard {
	return &Wizard{st: st}
}

// Start opens the form prefilled with current.
func (w *Wizard) Start(current domain.Preferences) {
	w.st.Wizard = &domain.WizardState{Step: 0, Values: current.Clone()}
	w.focus()
}

// Active reports whether the form is open.
func (w *Wizard) Active() bool {
	return w.st.Wizard != nil && w.st.Wizard.Step < len(WizardSteps)
}

// Key returns the key asked at the current step.
func (w *Wizard) Key() (domain.PreferenceKey, bool) {
	if !w.Active() {
		return "", false
	}
	return WizardSteps[w.st.Wizard.Step], true
}

// Answer stores text for the current step. Empty input keeps the existing
// value. It returns the collected values and true once the last step is done;
// the form is closed at that point.
func (w *Wizard) Answer(text string) (domain.Preferences, bool) {
	key, ok := w.Key()
	if !ok {
		return domain.Preferences{}, false
	}
	if v := guard.Sanitize(text, guard.MaxPreferenceLen); v != "" {
		_ = w.st.Wizard.Values.Set(key, v)
	}
	w.st.Wizard.Step++
	if w.st.Wizard.Step < len(WizardSteps) {
		w.focus()
		return domain.Preferences{}, false
	}
	values := w.st.Wizard.Values.Clone()
	w.st.Wizard = nil
	w.st.InputPrefill = ""
	return values, true
}

// SelectOption answers with option i of the current step.
func (w *Wizard) SelectOption(i int) (domain.Preferences, bool) {
	key, ok := w.Key()
	options := optionTable[key]
	if !ok || i < 0 || i >= len(options) {
		return domain.Preferences{}, false
	}
	return w.Answer(options[i].Value)
}

// MoveSelection cycles the highlight over the step's options and the input.
func (w *Wizard) MoveSelection(delta int) {
	key, ok := w.Key()
	if !ok {
		return
	}
	n := len(optionTable[key]) + 1
	pos := w.st.OptionChoice
	if pos < 0 {
		pos = n - 1
	}
	pos = ((pos+delta)%n + n) % n
	if pos == n-1 {
		w.st.OptionChoice = domain.ChoiceInput
		return
	}
	w.st.OptionChoice = pos
}

// Cancel closes the form without saving.
func (w *Wizard) Cancel() {
	w.st.Wizard = nil
	w.st.InputPrefill = ""
}

func (w *Wizard) focus() {
	key := WizardSteps[w.st.Wizard.Step]
	current, _ := w.st.Wizard.Values.Value(key)
	w.st.InputPrefill = ""
	if idx := optionIndex(key, current); idx >= 0 {
		w.st.OptionChoice = idx
		return
	}
	if current == "" && len(optionTable[key]) > 0 {
		w.st.OptionChoice = 0
		return
	}
	w.st.OptionChoice = domain.ChoiceInput
	w.st.InputPrefill = current
}
