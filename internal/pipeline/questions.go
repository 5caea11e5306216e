package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
)

const (
	maxQuestions = 5
	maxOptions   = 5
	maxIDLen     = 40
)

// FallbackQuestions is the fixed set used when the provider cannot supply
// questions and fallback is enabled.
func FallbackQuestions() []domain.ClarifyingQuestion {
	return []domain.ClarifyingQuestion{
		{
			ID:       "fallback_audience",
			Question: "Who is the primary audience for the result?",
			Options: []domain.ClarifyingOption{
				{ID: "general", Label: "General public"},
				{ID: "experts", Label: "Technical experts"},
				{ID: "executives", Label: "Executives and decision makers"},
				{ID: "beginners", Label: "Students and beginners"},
			},
		},
		{
			ID:       "fallback_format",
			Question: "What format should the output take?",
			Options: []domain.ClarifyingOption{
				{ID: "paragraph", Label: "Short paragraph"},
				{ID: "bullets", Label: "Bulleted list"},
				{ID: "steps", Label: "Step-by-step guide"},
				{ID: "table", Label: "Table"},
			},
		},
		{
			ID:       "fallback_constraints",
			Question: "Any constraints or must-haves, such as length, tone or things to avoid?",
		},
	}
}

type questionEnvelope struct {
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	ID       string      `json:"id"`
	Question string      `json:"question"`
	Options  []rawOption `json:"options"`
}

// rawOption accepts either a bare label string or an {id, label} object.
type rawOption struct {
	ID    string
	Label string
}

func (o *rawOption) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		o.Label = label
		return nil
	}
	var obj struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("option must be a string or object: %w", err)
	}
	o.ID = obj.ID
	o.Label = domain.CoalesceStr(obj.Label, obj.Text)
	return nil
}

func validateEnvelope(e questionEnvelope) error {
	if e.Questions == nil {
		return errors.New("questions field is required")
	}
	return nil
}

// normalizeQuestions caps every string and drops malformed entries:
// questions with no text, duplicate ids and empty or duplicate options.
func normalizeQuestions(raw []rawQuestion) []domain.ClarifyingQuestion {
	out := make([]domain.ClarifyingQuestion, 0, maxQuestions)
	seen := make(map[string]bool)
	for _, rq := range raw {
		if len(out) == maxQuestions {
			break
		}
		text := guard.Sanitize(rq.Question, guard.MaxQuestionLen)
		if text == "" {
			continue
		}
		id := guard.Sanitize(rq.ID, maxIDLen)
		if id == "" {
			id = fmt.Sprintf("q%d", len(out)+1)
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		q := domain.ClarifyingQuestion{ID: id, Question: text}
		labels := make(map[string]bool)
		for _, ro := range rq.Options {
			if len(q.Options) == maxOptions {
				break
			}
			label := guard.Sanitize(ro.Label, guard.MaxOptionLen)
			key := strings.ToLower(label)
			if label == "" || labels[key] {
				continue
			}
			labels[key] = true
			optID := guard.Sanitize(ro.ID, maxIDLen)
			if optID == "" {
				optID = fmt.Sprintf("%s_o%d", id, len(q.Options)+1)
			}
			q.Options = append(q.Options, domain.ClarifyingOption{ID: optID, Label: label})
		}
		out = append(out, q)
	}
	return out
}
