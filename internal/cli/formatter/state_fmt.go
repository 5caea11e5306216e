package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/prefs"
)

// Choice is one selectable row of the active prompt. Value is what typing
// the choice submits.
type Choice struct {
	Label    string
	Value    string
	Selected bool
}

// Prompt is what the conversation is currently asking, if anything.
type Prompt struct {
	Title    string
	Progress string
	Choices  []Choice
}

// ActivePrompt derives the pending question from st. ok is false when the
// conversation is not waiting on a choice.
func ActivePrompt(st domain.ConversationState) (Prompt, bool) {
	switch {
	case st.Wizard != nil && st.Wizard.Step < len(prefs.WizardSteps):
		key := prefs.WizardSteps[st.Wizard.Step]
		return Prompt{
			Title:    prefs.Question(key),
			Progress: fmt.Sprintf("%d/%d", st.Wizard.Step+1, len(prefs.WizardSteps)),
			Choices:  optionChoices(prefs.Options(key), st.OptionChoice),
		}, true

	case st.PendingUnclear != nil:
		return Prompt{
			Title: "That doesn't look like a clear task (" + st.PendingUnclear.Reason + ").",
			Choices: []Choice{
				{Label: "edit", Value: "edit", Selected: st.OptionChoice == 0},
				{Label: "continue", Value: "continue", Selected: st.OptionChoice == 1},
			},
		}, true

	case st.ClarifyPhase == domain.PhaseAwaitingConsent:
		return Prompt{
			Title: "Answer a few quick questions first?",
			Choices: []Choice{
				{Label: "yes", Value: "yes", Selected: st.ConsentChoice == domain.ConsentYes},
				{Label: "no", Value: "no", Selected: st.ConsentChoice == domain.ConsentNo},
			},
		}, true

	case st.ClarifyPhase == domain.PhaseAnsweringQuestions:
		q, ok := st.CurrentQuestion()
		if !ok {
			return Prompt{}, false
		}
		choices := make([]Choice, len(q.Options))
		for i, o := range q.Options {
			choices[i] = Choice{Label: o.Label, Value: o.Label, Selected: st.OptionChoice == i}
		}
		return Prompt{
			Title:    q.Question,
			Progress: fmt.Sprintf("%d/%d", st.QuestionIndex+1, len(st.Questions)),
			Choices:  choices,
		}, true

	case st.Stage == domain.StagePreferences:
		key, ok := st.CurrentPreferenceKey()
		if !ok {
			return Prompt{}, false
		}
		return Prompt{
			Title:    prefs.Question(key),
			Progress: fmt.Sprintf("%d/%d", st.PreferenceIndex+1, len(st.PreferenceKeys)),
			Choices:  optionChoices(prefs.Options(key), st.OptionChoice),
		}, true
	}
	return Prompt{}, false
}

func optionChoices(opts []prefs.Option, selected int) []Choice {
	out := make([]Choice, len(opts))
	for i, o := range opts {
		out[i] = Choice{Label: o.Label, Value: o.Value, Selected: selected == i}
	}
	return out
}

// FormatPrompt renders an active prompt. Choices are numbered; the
// highlighted one is marked.
func FormatPrompt(p Prompt) string {
	var b strings.Builder
	title := StyleBold.Render(p.Title)
	if p.Progress != "" {
		title = StyleDim.Render("["+p.Progress+"] ") + title
	}
	b.WriteString(title + "\n")
	for i, c := range p.Choices {
		marker := "  "
		label := c.Label
		if c.Selected {
			marker = StylePurple.Render("› ")
			label = StylePurple.Render(label)
		}
		fmt.Fprintf(&b, "  %s%s %s\n", marker, StyleDim.Render(fmt.Sprintf("%d.", i+1)), label)
	}
	return b.String()
}

// FormatState renders the conversation for line mode: the active prompt,
// the finished prompt when one is visible, and the status line.
func FormatState(st domain.ConversationState) string {
	var b strings.Builder
	if p, ok := ActivePrompt(st); ok {
		b.WriteString(FormatPrompt(p))
	}
	if st.HasPrompt() && st.EditablePrompt != "" {
		b.WriteString(Header("Prompt") + "  " + SourceBadge(st.PromptSource) + "\n")
		b.WriteString(st.EditablePrompt + "\n")
	}
	if st.Status != "" {
		style := StyleDim
		if st.ErrorCode != "" {
			style = StyleRed
		}
		b.WriteString(style.Render(st.Status) + "\n")
	}
	return b.String()
}

// StageLabel is the short stage name shown in the shell prompt.
func StageLabel(st domain.ConversationState) string {
	switch st.Stage {
	case domain.StageReady:
		return StyleGreen.Render(string(st.Stage))
	case domain.StageError:
		return StyleRed.Render(string(st.Stage))
	case domain.StageGenerating, domain.StageClarifying:
		return StyleYellow.Render(string(st.Stage))
	default:
		return StyleDim.Render(string(st.Stage))
	}
}
