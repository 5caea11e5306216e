package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/promptforge/internal/cli/formatter"
	"github.com/alexanderramin/promptforge/internal/conversation"
	"github.com/alexanderramin/promptforge/internal/domain"
)

func newShellCmd(r *root) *cobra.Command {
	var mode domain.Mode
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt builder",
		Long: `Start the interactive shell. Describe a task and promptforge will
ask a few clarifying questions, collect your preferences, and write a
prompt you can refine with /edit.

The conversation is saved as you go and picked up on the next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), r.app, mode)
		},
	}
	addModeFlags(cmd.Flags(), &mode)
	return cmd
}

func runShell(ctx context.Context, app *App, mode domain.Mode) error {
	ctrl := app.NewController(mode)
	restored, stopDrafts := app.AttachDrafts(ctx, ctrl)
	defer stopDrafts()

	user := ""
	if u, _ := app.Identity.CurrentUser(ctx); u != nil {
		user = u.ID
	}
	hist := newLineHistory(app.Config.Storage.DBPath)
	m := newShellModel(ctx, ctrl, shellOptions{
		welcome:  formatter.FormatShellWelcome(user, restored),
		history:  hist.Load(),
		saveLine: hist.Append,
		renderer: formatter.NewPromptRenderer(100, true),
	})

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(app.In), tea.WithOutput(app.Out))
	ctrl.Subscribe(func(u conversation.Update) {
		p.Send(stateMsg{state: u.State})
	})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	return nil
}
