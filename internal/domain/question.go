package domain

// ClarifyingOption is one selectable answer to a clarifying question.
type ClarifyingOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ClarifyingQuestion is a short question generated per task to narrow
// ambiguity before final generation. Order is fixed once generated.
type ClarifyingQuestion struct {
	ID       string             `json:"id"`
	Question string             `json:"question"`
	Options  []ClarifyingOption `json:"options,omitempty"`
}

// OptionIndex returns the index of the option whose label equals label, or -1.
func (q ClarifyingQuestion) OptionIndex(label string) int {
	if label == "" {
		return -1
	}
	for i, o := range q.Options {
		if o.Label == label {
			return i
		}
	}
	return -1
}

// ClarifyingAnswer records the answer given at one question index.
// An empty Answer means the question was skipped.
type ClarifyingAnswer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// Skipped reports whether the question was skipped.
func (a ClarifyingAnswer) Skipped() bool { return a.Answer == "" }

// QuestionSource records where a question set came from.
type QuestionSource string

const (
	SourceLLM      QuestionSource = "llm"
	SourceFallback QuestionSource = "fallback"
)

// PromptSource records how a prompt body was produced.
type PromptSource string

const (
	PromptFromLLM      PromptSource = "llm"
	PromptFromPremium  PromptSource = "premium"
	PromptDegraded     PromptSource = "degraded"
	PromptUnchanged    PromptSource = "unchanged"
	PromptFromFallback PromptSource = "fallback"
)

func cloneQuestions(qs []ClarifyingQuestion) []ClarifyingQuestion {
	if qs == nil {
		return nil
	}
	out := make([]ClarifyingQuestion, len(qs))
	for i, q := range qs {
		out[i] = q
		if q.Options != nil {
			out[i].Options = append([]ClarifyingOption(nil), q.Options...)
		}
	}
	return out
}

func cloneAnswers(as []ClarifyingAnswer) []ClarifyingAnswer {
	if as == nil {
		return nil
	}
	return append([]ClarifyingAnswer(nil), as...)
}
