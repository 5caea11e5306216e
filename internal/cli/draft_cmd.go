package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/promptforge/internal/cli/formatter"
)

func newDraftCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or discard the saved conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec, ok, err := r.app.Drafts.Load(ctx, r.app.DraftScope(ctx))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(r.app.Out, formatter.Dim("No saved conversation."))
				return nil
			}
			st := rec.State
			fmt.Fprintf(r.app.Out, "%s  %s  %s\n",
				formatter.Header("Draft"), formatter.ModeBadge(st.Mode), formatter.Dim("saved "+formatter.HumanTimestamp(rec.SavedAt, time.Now())))
			if st.Task != "" {
				fmt.Fprintln(r.app.Out, formatter.Dim("Task: ")+st.Task)
			}
			fmt.Fprint(r.app.Out, formatter.FormatState(st))
			if rec.Snapshot != nil {
				fmt.Fprintln(r.app.Out, formatter.Dim("A cleared conversation can be brought back with /restore."))
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "discard",
		Short: "Delete the saved conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.app.Drafts.Discard(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(r.app.Out, "Saved conversation discarded.")
			return nil
		},
	})
	return cmd
}
