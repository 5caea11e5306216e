// Package clarify advances and rewinds through a generated list of
// clarifying questions. The engine owns no state of its own; it mutates the
// conversation state it is handed, so the controller remains the single
// owner of that state.
package clarify

import (
	"strings"

	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
)

// Outcome reports what an answer did to the flow.
type Outcome int

const (
	// Ignored means the call had no effect (engine inactive, bad index).
	Ignored Outcome = iota
	// Advanced means another question is now current.
	Advanced
	// Complete means every question has an answer.
	Complete
)

// Engine drives the clarifying phase of a conversation.
type Engine struct {
	st *domain.ConversationState
}

// New binds an engine to st.
func New(st *domain.ConversationState) *Engine {
	return &Engine{st: st}
}

// Active reports whether a question is waiting for an answer.
func (e *Engine) Active() bool {
	return e.st.ClarifyPhase == domain.PhaseAnsweringQuestions && e.st.QuestionIndex < len(e.st.Questions)
}

// RequestConsent moves to the consent gate with "yes" highlighted.
func (e *Engine) RequestConsent() {
	e.st.ClarifyPhase = domain.PhaseAwaitingConsent
	e.st.Stage = domain.StageConsent
	e.st.ConsentChoice = domain.ConsentYes
}

// AwaitingConsent reports whether the consent gate is open.
func (e *Engine) AwaitingConsent() bool {
	return e.st.ClarifyPhase == domain.PhaseAwaitingConsent
}

// StartGenerating marks questions as being fetched.
func (e *Engine) StartGenerating() {
	e.st.ClarifyPhase = domain.PhaseGeneratingQuestions
	e.st.Stage = domain.StageClarifying
}

// Begin seeds the question list and focuses the first question.
func (e *Engine) Begin(questions []domain.ClarifyingQuestion, source domain.QuestionSource) {
	e.st.Questions = questions
	e.st.QuestionSource = source
	e.st.Answers = nil
	e.st.QuestionIndex = 0
	e.st.ClarifyPhase = domain.PhaseAnsweringQuestions
	e.st.Stage = domain.StageClarifying
	e.restoreFocus()
}

// Answer records text for the current question and advances.
func (e *Engine) Answer(text string) Outcome {
	return e.advance(guard.Sanitize(text, guard.MaxAnswerLen), true)
}

// Skip records an empty answer and advances without focusing the input.
func (e *Engine) Skip() Outcome {
	return e.advance("", false)
}

// SelectOption answers with the label of option i.
func (e *Engine) SelectOption(i int) Outcome {
	q, ok := e.st.CurrentQuestion()
	if !ok || !e.Active() || i < 0 || i >= len(q.Options) {
		return Ignored
	}
	return e.Answer(q.Options[i].Label)
}

// Undo rewinds one question and restores its previous answer. It is a no-op
// at the first question.
func (e *Engine) Undo() bool {
	if len(e.st.Questions) == 0 || e.st.QuestionIndex == 0 {
		return false
	}
	if e.st.ClarifyPhase != domain.PhaseAnsweringQuestions && e.st.ClarifyPhase != domain.PhaseComplete {
		return false
	}
	e.st.QuestionIndex--
	e.st.ClarifyPhase = domain.PhaseAnsweringQuestions
	e.st.Stage = domain.StageClarifying
	e.restoreFocus()
	return true
}

// ResumeAt makes question i current again, keeping recorded answers. i may
// not skip past the first unanswered question.
func (e *Engine) ResumeAt(i int) bool {
	if i < 0 || i >= len(e.st.Questions) || i > len(e.st.Answers) {
		return false
	}
	e.st.QuestionIndex = i
	e.st.ClarifyPhase = domain.PhaseAnsweringQuestions
	e.st.Stage = domain.StageClarifying
	e.restoreFocus()
	return true
}

// NextUnanswered returns the index of the first question without a recorded
// answer, or len(Questions) when all are answered.
func (e *Engine) NextUnanswered() int {
	return len(e.st.Answers)
}

// Choices lists the focusable slots for the current question in display
// order: every option, the free-text input, then back when rewinding is
// possible.
func (e *Engine) Choices() []int {
	q, ok := e.st.CurrentQuestion()
	if !ok {
		return nil
	}
	out := make([]int, 0, len(q.Options)+2)
	for i := range q.Options {
		out = append(out, i)
	}
	out = append(out, domain.ChoiceInput)
	if e.st.QuestionIndex > 0 {
		out = append(out, domain.ChoiceBack)
	}
	return out
}

// MoveSelection moves the highlighted slot by delta, wrapping around.
func (e *Engine) MoveSelection(delta int) {
	e.st.OptionChoice = cycle(e.Choices(), e.st.OptionChoice, delta)
}

func (e *Engine) advance(answer string, focusInput bool) Outcome {
	q, ok := e.st.CurrentQuestion()
	if !ok || !e.Active() {
		return Ignored
	}
	rec := domain.ClarifyingAnswer{QuestionID: q.ID, Question: q.Question, Answer: answer}
	switch i := e.st.QuestionIndex; {
	case i < len(e.st.Answers):
		e.st.Answers[i] = rec
	default:
		e.st.Answers = append(e.st.Answers, rec)
	}
	e.st.QuestionIndex++
	e.st.InputPrefill = ""

	if e.st.QuestionIndex >= len(e.st.Questions) {
		e.st.ClarifyPhase = domain.PhaseComplete
		e.st.OptionChoice = domain.ChoiceInput
		return Complete
	}
	e.restoreFocus()
	if !focusInput && e.st.OptionChoice == domain.ChoiceInput {
		e.st.OptionChoice = e.defaultFocus()
	}
	return Advanced
}

// restoreFocus reconciles the UI selection with the answer previously saved
// for the current question. A saved answer equal to an option label is
// treated as if that option had been picked; this match is best effort.
func (e *Engine) restoreFocus() {
	q, ok := e.st.CurrentQuestion()
	if !ok {
		return
	}
	saved := ""
	if i := e.st.QuestionIndex; i < len(e.st.Answers) {
		saved = e.st.Answers[i].Answer
	}
	e.st.InputPrefill = ""
	if idx := q.OptionIndex(saved); idx >= 0 {
		e.st.OptionChoice = idx
		return
	}
	if saved != "" {
		e.st.OptionChoice = domain.ChoiceInput
		e.st.InputPrefill = saved
		return
	}
	e.st.OptionChoice = e.defaultFocus()
}

// defaultFocus is the first option, else back when not on the first
// question, else the input field.
func (e *Engine) defaultFocus() int {
	q, _ := e.st.CurrentQuestion()
	switch {
	case len(q.Options) > 0:
		return 0
	case e.st.QuestionIndex > 0:
		return domain.ChoiceBack
	}
	return domain.ChoiceInput
}

// ParseConsent maps typed input to a consent decision. Empty input uses the
// highlighted choice.
func ParseConsent(text string, highlighted int) (yes bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "":
		switch highlighted {
		case domain.ConsentYes:
			return true, true
		case domain.ConsentNo:
			return false, true
		}
		return false, false
	case "y", "yes", "yeah", "yep", "sure", "ok", "okay", "1":
		return true, true
	case "n", "no", "nope", "skip", "2":
		return false, true
	}
	return false, false
}

func cycle(slots []int, current, delta int) int {
	if len(slots) == 0 {
		return current
	}
	pos := 0
	for i, s := range slots {
		if s == current {
			pos = i
			break
		}
	}
	pos = ((pos+delta)%len(slots) + len(slots)) % len(slots)
	return slots[pos]
}
