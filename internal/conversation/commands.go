package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/prefs"
)

// Commands lists the slash commands the controller understands.
var Commands = []string{
	"/new", "/clear", "/restore", "/stop", "/back", "/skip", "/edit",
	"/quick", "/guided", "/prefs", "/login", "/logout", "/revise", "/help",
}

// command routes a slash command. The input line is always consumed.
func (c *Controller) command(ctx context.Context, line string) (job, error) {
	name, args, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)

	switch name {
	case "/new", "/clear":
		// Clearing an empty conversation is a no-op, so repeated presses
		// never overwrite the snapshot with nothing.
		if c.st.IsEmpty() {
			return nil, nil
		}
		c.takeSnapshot()
		c.runs.Invalidate()
		c.running = false
		c.reset()
		if name == "/new" {
			c.override = ""
		}
		c.st.Status = msgCleared
		c.emit(ctx, domain.EventConversationCleared, map[string]any{"command": name})
	case "/restore":
		if c.snapshot == nil {
			c.st.Status = msgNothingToRestore
			return nil, nil
		}
		c.runs.Invalidate()
		c.running = false
		c.st = c.snapshot.State.Clone().Interrupted()
		c.snapshot = nil
		c.st.Status = msgRestored
	case "/stop":
		c.halt(ctx)
	case "/back":
		if c.wizard.Active() {
			c.wizard.Cancel()
			c.st.Status = ""
			return nil, nil
		}
		c.back()
	case "/skip":
		return c.skip(ctx)
	case "/edit":
		return c.edit(ctx, args), nil
	case "/quick":
		c.override = domain.ModeQuick
		c.st.Status = msgModeQuick
	case "/guided":
		c.override = domain.ModeGuided
		c.st.Status = msgModeGuided
	case "/prefs":
		c.wizard.Start(c.loadPrefs(ctx))
		c.st.Status = prefs.Question(prefs.WizardSteps[0])
	case "/login":
		fields := strings.Fields(args)
		if len(fields) == 0 {
			c.st.Status = msgLoginUsage
			return nil, nil
		}
		u := &auth.User{ID: fields[0]}
		if len(fields) > 1 {
			u.Email = fields[1]
		}
		c.deps.Identity.SetUser(u)
		c.st.Status = fmt.Sprintf("Signed in as %s.", u.ID)
		if c.st.PendingLogin != nil {
			return c.resumeAfterLogin(ctx)
		}
	case "/logout":
		c.deps.Identity.SetUser(nil)
		c.st.Status = msgSignedOut
	case "/revise":
		if c.st.Task == "" || !(c.clarify.AwaitingConsent() || c.clarify.Active() || c.prefs.Active()) {
			c.st.Status = msgNothingToRevise
			return nil, nil
		}
		c.st.Revising = true
		c.st.InputPrefill = c.st.Task
		c.st.OptionChoice = domain.ChoiceInput
		c.st.Status = msgRevise
	case "/help":
		c.st.Status = msgHelp
	default:
		c.st.Status = fmt.Sprintf("Unknown command %s. Type /help for a list.", name)
	}
	return nil, nil
}

func (c *Controller) skip(ctx context.Context) (job, error) {
	switch {
	case c.wizard.Active():
		values, done := c.wizard.Answer("")
		return nil, c.afterWizard(ctx, values, done)
	case c.clarify.AwaitingConsent():
		return c.consent(ctx, false), nil
	case c.clarify.Active():
		return c.afterAnswer(ctx, c.clarify.Skip()), nil
	case c.prefs.Active():
		return c.afterPreference(ctx, c.prefs.Skip()), nil
	}
	c.st.Status = msgNothingToSkip
	return nil, nil
}
