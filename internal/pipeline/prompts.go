package pipeline

import (
	"strings"

	"github.com/alexanderramin/promptforge/internal/domain"
)

const clarifySystemPrompt = `You help people turn a rough task description into a precise prompt for a language model.
Ask the few clarifying questions whose answers would most change the final prompt.

Output ONLY a JSON object of this exact shape:
{"questions":[{"id":"q1","question":"...","options":["...","..."]}]}

Rules:
1. Ask between 1 and 5 questions, most important first.
2. Each question is one short sentence.
3. Offer 0 to 5 short options when the answer space is small; use an empty array otherwise.
4. Do not ask about anything the user preferences below already settle.
5. Never include commentary outside the JSON object.`

const finalSystemPrompt = `You write production-ready prompts for large language models.
Combine the user's task, their answers to clarifying questions, and their preferences into one prompt
that another model can follow without further context.

Output ONLY a JSON object of this exact shape:
{"prompt":"..."}

Rules:
1. Address the target model directly in the second person.
2. State the goal, the audience, constraints and the expected output format.
3. Skipped questions carry no information; do not invent answers for them.
4. Respect every preference given; omit any that are not set.
5. Never include commentary outside the JSON object.`

const editSystemPrompt = `You revise an existing model prompt according to an edit request.
Keep everything the request does not ask to change.

Output ONLY a JSON object of this exact shape:
{"prompt":"..."}

Never include commentary outside the JSON object.`

func buildClarifyPrompt(task string, prefs domain.Preferences) string {
	var b strings.Builder
	b.WriteString("Task:\n")
	b.WriteString(task)
	writePreferences(&b, prefs)
	return b.String()
}

func buildFinalPrompt(task string, answers []domain.ClarifyingAnswer, prefs domain.Preferences) string {
	var b strings.Builder
	b.WriteString("Task:\n")
	b.WriteString(task)
	if len(answers) > 0 {
		b.WriteString("\n\nClarifying answers:\n")
		for _, a := range answers {
			b.WriteString("- Q: ")
			b.WriteString(a.Question)
			b.WriteString("\n  A: ")
			if a.Skipped() {
				b.WriteString("(skipped)")
			} else {
				b.WriteString(a.Answer)
			}
			b.WriteString("\n")
		}
	}
	writePreferences(&b, prefs)
	return b.String()
}

func buildEditPrompt(prompt, instruction string, prefs domain.Preferences) string {
	var b strings.Builder
	b.WriteString("Current prompt:\n")
	b.WriteString(prompt)
	b.WriteString("\n\nEdit request:\n")
	b.WriteString(instruction)
	writePreferences(&b, prefs)
	return b.String()
}

func writePreferences(b *strings.Builder, prefs domain.Preferences) {
	wrote := false
	for _, k := range domain.AllPreferenceKeys {
		v, ok := prefs.Value(k)
		if !ok {
			continue
		}
		if !wrote {
			b.WriteString("\n\nPreferences:\n")
			wrote = true
		}
		b.WriteString("- ")
		b.WriteString(string(k))
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
}
