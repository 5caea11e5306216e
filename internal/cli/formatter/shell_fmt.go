package formatter

import (
	"fmt"
	"strings"
)

// FormatShellWelcome renders the banner shown when the shell starts.
func FormatShellWelcome(user string, restored bool) string {
	var b strings.Builder
	b.WriteString(StylePurple.Render("promptforge") + "\n")
	b.WriteString(StyleDim.Render("─────────────────────────────") + "\n")
	if user != "" {
		b.WriteString(StyleDim.Render("Signed in as ") + StyleGreen.Render(user) + "\n")
	} else {
		b.WriteString(StyleDim.Render("Not signed in. Use /login <id> before generating.") + "\n")
	}
	if restored {
		b.WriteString(StyleYellow.Render("Picked up your last conversation.") + "\n")
	}
	b.WriteString(StyleDim.Render("Describe a task to get started, or /help for commands.") + "\n")
	return b.String()
}

type helpCategory struct {
	title    string
	commands [][]string
}

func renderHelpCategory(cat helpCategory) string {
	var b strings.Builder
	b.WriteString("\n " + StyleHeader.Render(strings.ToUpper(cat.title)) + "\n")
	for _, c := range cat.commands {
		b.WriteString(fmt.Sprintf("  %-26s %s\n", StyleGreen.Render(c[0]), StyleDim.Render(c[1])))
	}
	return b.String()
}

// FormatShellHelp renders the categorized slash-command reference.
func FormatShellHelp() string {
	categories := []helpCategory{
		{
			title: "Conversation",
			commands: [][]string{
				{"/new", "Start over (keeps a snapshot)"},
				{"/clear", "Clear the conversation (keeps a snapshot)"},
				{"/restore", "Bring back the last cleared conversation"},
				{"/stop", "Stop the running request"},
				{"/revise", "Rephrase the task mid-flow"},
			},
		},
		{
			title: "Questions",
			commands: [][]string{
				{"/back", "Go back one question"},
				{"/skip", "Skip the current question"},
				{"↑ ↓ then Enter", "Pick a highlighted option"},
			},
		},
		{
			title: "Prompt",
			commands: [][]string{
				{"/edit <request>", "Revise the finished prompt"},
				{"/quick, /guided", "Switch how new tasks start"},
				{"/prefs", "Set tone, audience and domain"},
			},
		},
		{
			title: "Account",
			commands: [][]string{
				{"/login <id> [email]", "Sign in"},
				{"/logout", "Sign out"},
				{"/exit", "Quit the shell"},
			},
		},
	}

	var b strings.Builder
	for _, cat := range categories {
		b.WriteString(renderHelpCategory(cat))
	}
	return RenderBox("Commands", strings.TrimLeft(b.String(), "\n"))
}
