package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/promptforge/internal/domain"
)

func newAskCmd(r *root) *cobra.Command {
	var mode domain.Mode
	cmd := &cobra.Command{
		Use:   `ask ["<task>"]`,
		Short: "Build a prompt line by line",
		Long: `Run the conversation in plain line mode. Each line of input is one
answer; a bare number picks that option of the current question.

With a task argument the conversation starts right away. Further lines
are read from standard input until EOF or /exit.

Examples:
  promptforge ask "write a launch email for our beta"
  promptforge ask --quick "summarize this RFC for executives" < /dev/null
  printf 'draft a cover letter\nno\n' | promptforge ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineMode(cmd.Context(), r.app, mode, strings.Join(args, " "))
		},
	}
	addModeFlags(cmd.Flags(), &mode)
	return cmd
}
