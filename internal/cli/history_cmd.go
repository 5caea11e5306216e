package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/cli/formatter"
	"github.com/alexanderramin/promptforge/internal/domain"
)

var errSignedOut = errors.New("not signed in: run \"promptforge login <id>\" first")

func newHistoryCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse prompts you have generated",
	}
	cmd.AddCommand(newHistoryListCmd(r), newHistoryShowCmd(r))
	return cmd
}

func newHistoryListCmd(r *root) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent prompts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := requireUser(ctx, r.app)
			if err != nil {
				return err
			}
			entries, err := r.app.History.ListHistory(ctx, u.ID, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(r.app.Out, formatter.FormatHistoryList(entries, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")
	return cmd
}

func newHistoryShowCmd(r *root) *cobra.Command {
	var asHTML, raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one prompt",
		Long: `Show one saved prompt. The id may be shortened to any unique prefix
of the id shown by "history list".

--html writes a standalone HTML page; --raw prints the prompt text only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := requireUser(ctx, r.app)
			if err != nil {
				return err
			}
			e, err := findHistory(ctx, r.app, u.ID, args[0])
			if err != nil {
				return err
			}
			switch {
			case asHTML:
				page, err := formatter.HistoryHTML(e)
				if err != nil {
					return err
				}
				fmt.Fprint(r.app.Out, page)
			case raw:
				fmt.Fprintln(r.app.Out, e.Body)
			default:
				body := formatter.NewPromptRenderer(100, r.app.IsInteractive()).Render(e.Body)
				fmt.Fprint(r.app.Out, formatter.FormatHistoryEntry(e, body, time.Now()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "render as an HTML page")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the prompt text only")
	cmd.MarkFlagsMutuallyExclusive("html", "raw")
	return cmd
}

// findHistory resolves an id or id prefix among the user's entries.
func findHistory(ctx context.Context, app *App, userID, id string) (domain.HistoryEntry, error) {
	if e, err := app.History.GetHistory(ctx, id); err == nil && e.UserID == userID {
		return *e, nil
	}
	entries, err := app.History.ListHistory(ctx, userID, 0)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	var match []domain.HistoryEntry
	for _, e := range entries {
		if strings.HasPrefix(e.ID, id) {
			match = append(match, e)
		}
	}
	switch len(match) {
	case 0:
		return domain.HistoryEntry{}, fmt.Errorf("no prompt with id %q", id)
	case 1:
		return match[0], nil
	}
	return domain.HistoryEntry{}, fmt.Errorf("id %q is ambiguous (%d matches)", id, len(match))
}

func requireUser(ctx context.Context, app *App) (*auth.User, error) {
	u, err := app.Identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errSignedOut
	}
	return u, nil
}
