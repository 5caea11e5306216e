package formatter

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// PromptRenderer renders a finished prompt as terminal markdown. A nil
// renderer, or one that fails, falls back to the raw text.
type PromptRenderer struct {
	tr *glamour.TermRenderer
}

// NewPromptRenderer builds a renderer wrapped at width columns. styled
// selects the auto-detected terminal style; otherwise the plain "notty"
// style is used.
func NewPromptRenderer(width int, styled bool) *PromptRenderer {
	if width <= 0 {
		width = 80
	}
	style := glamour.WithStylePath("notty")
	if styled {
		style = glamour.WithAutoStyle()
	}
	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return &PromptRenderer{}
	}
	return &PromptRenderer{tr: tr}
}

// Render returns body formatted for the terminal.
func (r *PromptRenderer) Render(body string) string {
	if r == nil || r.tr == nil {
		return body
	}
	out, err := r.tr.Render(body)
	if err != nil {
		return body
	}
	return strings.Trim(out, "\n")
}
