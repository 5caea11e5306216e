package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// SourceBadge labels where a prompt body came from.
func SourceBadge(src domain.PromptSource) string {
	switch src {
	case domain.PromptFromLLM:
		return StyleGreen.Render("● generated")
	case domain.PromptFromPremium:
		return StylePurple.Render("★ premium")
	case domain.PromptDegraded:
		return StyleYellow.Render("▲ task as written")
	case domain.PromptUnchanged:
		return StyleYellow.Render("○ unchanged")
	case domain.PromptFromFallback:
		return StyleYellow.Render("○ fallback")
	default:
		return StyleDim.Render(string(src))
	}
}

// TierBadge renders a subscription tier.
func TierBadge(tier domain.Tier) string {
	label := strings.ToUpper(string(tier))
	switch tier {
	case domain.TierAdvanced:
		return StylePurple.Render("★ " + label)
	case domain.TierBasic:
		return StyleGreen.Render("● " + label)
	case domain.TierTrial:
		return StyleBlue.Render("○ " + label)
	case domain.TierExpired:
		return StyleRed.Render("✖ " + label)
	default:
		return StyleDim.Render(label)
	}
}

// ModeBadge renders the mode new tasks start in.
func ModeBadge(mode domain.Mode) string {
	if mode == domain.ModeQuick {
		return StyleYellow.Render("» QUICK")
	}
	return StyleGreen.Render("? GUIDED")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
