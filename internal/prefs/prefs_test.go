package prefs

import (
	"testing"

	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysToAsk_FiltersSetAndDoNotAsk(t *testing.T) {
	p := domain.Preferences{
		Tone:     "Friendly",
		DoNotAsk: []domain.PreferenceKey{domain.PrefDepth},
	}
	order := []domain.PreferenceKey{
		domain.PrefTone, domain.PrefAudience, domain.PrefDepth,
		domain.PrefAudience, "bogus", domain.PrefTemperature,
	}

	assert.Equal(t, []domain.PreferenceKey{domain.PrefAudience, domain.PrefTemperature}, KeysToAsk(p, order))
}

func TestKeysToAsk_NothingMissing(t *testing.T) {
	p := domain.Preferences{Tone: "Casual", Audience: "Students"}
	assert.Empty(t, KeysToAsk(p, []domain.PreferenceKey{domain.PrefTone, domain.PrefAudience}))
}

func beginPrefs(keys ...domain.PreferenceKey) (*Engine, *domain.ConversationState) {
	st := domain.NewConversationState()
	e := New(&st)
	e.Begin(keys)
	return e, &st
}

func TestEngine_AnswersAndCollects(t *testing.T) {
	e, st := beginPrefs(domain.PrefTone, domain.PrefStyleGuidelines, domain.PrefAudience)

	assert.Equal(t, 0, st.OptionChoice)
	assert.Equal(t, Advanced, e.SelectOption(1))
	assert.Equal(t, domain.ChoiceInput, st.OptionChoice, "free-text key focuses input")
	assert.Equal(t, Advanced, e.Answer("Use Oxford commas"))
	assert.Equal(t, Complete, e.Skip())

	got := e.Collected()
	assert.Equal(t, "Friendly", got.Tone)
	assert.Equal(t, "Use Oxford commas", got.StyleGuidelines)
	assert.Empty(t, got.Audience)
	assert.False(t, e.Active())
}

func TestEngine_TemperatureIsClampedOrDiscarded(t *testing.T) {
	e, _ := beginPrefs(domain.PrefTemperature, domain.PrefTemperature)
	e.Answer("1.7")
	got := e.Collected()
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 1.0, *got.Temperature)

	e2, st2 := beginPrefs(domain.PrefTemperature)
	assert.Equal(t, Complete, e2.Answer("very hot"))
	assert.Equal(t, "", st2.PreferenceAnswers[0].Value)
	assert.Nil(t, e2.Collected().Temperature)

	e3, _ := beginPrefs(domain.PrefTemperature)
	e3.Answer("-3")
	assert.Equal(t, 0.0, *e3.Collected().Temperature)
}

func TestEngine_BackOnFirstKeyCrossesToClarifying(t *testing.T) {
	e, st := beginPrefs(domain.PrefTone, domain.PrefAudience)
	assert.Equal(t, BackToClarifying, e.Back())
	assert.Equal(t, 0, st.PreferenceIndex)
	assert.Equal(t, domain.StagePreferences, st.Stage)
}

func TestEngine_BackRestoresPreviousValue(t *testing.T) {
	e, st := beginPrefs(domain.PrefTone, domain.PrefStyleGuidelines, domain.PrefAudience)
	e.Answer("Persuasive")
	e.Answer("Short sentences")

	require.Equal(t, BackStepped, e.Back())
	assert.Equal(t, 1, st.PreferenceIndex)
	assert.Equal(t, "Short sentences", st.InputPrefill)

	require.Equal(t, BackStepped, e.Back())
	assert.Equal(t, 3, st.OptionChoice, "Persuasive is the fourth tone option")
}

func TestEngine_SkipNeverFocusesInput(t *testing.T) {
	e, st := beginPrefs(domain.PrefTone, domain.PrefPersonaHints)
	e.Skip()
	assert.Equal(t, domain.ChoiceBack, st.OptionChoice)
}

func TestEngine_MoveSelection(t *testing.T) {
	e, st := beginPrefs(domain.PrefDepth)
	assert.Equal(t, []int{0, 1, 2, domain.ChoiceInput, domain.ChoiceBack}, e.Choices())
	e.MoveSelection(-1)
	assert.Equal(t, domain.ChoiceBack, st.OptionChoice)
}

func TestWizard_ThreeStepsThenClosed(t *testing.T) {
	st := domain.NewConversationState()
	w := NewWizard(&st)
	w.Start(domain.Preferences{Audience: "Data scientists"})

	require.True(t, w.Active())
	_, done := w.SelectOption(0)
	assert.False(t, done)
	assert.Equal(t, "Data scientists", st.InputPrefill, "free-text current value is prefilled")
	_, done = w.Answer("")
	assert.False(t, done)
	values, done := w.Answer("Education")

	require.True(t, done)
	assert.Equal(t, "Professional", values.Tone)
	assert.Equal(t, "Data scientists", values.Audience)
	assert.Equal(t, "Education", values.Domain)
	assert.Nil(t, st.Wizard)
	assert.False(t, w.Active())
}

func TestWizard_Cancel(t *testing.T) {
	st := domain.NewConversationState()
	w := NewWizard(&st)
	w.Start(domain.Preferences{})
	w.Cancel()
	assert.False(t, w.Active())
}
