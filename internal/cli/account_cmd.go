package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/cli/formatter"
	"github.com/alexanderramin/promptforge/internal/domain"
)

func newLoginCmd(r *root) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login <id>",
		Short: "Sign in on this device",
		Long: `Sign in as <id>. Preferences saved while signed out move to the
account unless it already has its own.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.app.Identity.SetUser(&auth.User{ID: args[0], Email: email})
			fmt.Fprintf(r.app.Out, "Signed in as %s.\n", formatter.Bold(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r.app.Identity.SetUser(nil)
			fmt.Fprintln(r.app.Out, "Signed out.")
			return nil
		},
	}
}

func newQuotaCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show plan usage for the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := requireUser(ctx, r.app)
			if err != nil {
				return err
			}
			rec, err := r.app.Ledger.Record(ctx, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(r.app.Out, formatter.FormatQuota(rec, r.app.Config.Limits.Quota.Cycle, time.Now()))
			return nil
		},
	}
	cmd.AddCommand(newQuotaTierCmd(r))
	return cmd
}

func newQuotaTierCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:       "tier <trial|basic|advanced|expired>",
		Short:     "Move the signed-in user to another plan",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.TierTrial), string(domain.TierBasic), string(domain.TierAdvanced), string(domain.TierExpired)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := requireUser(ctx, r.app)
			if err != nil {
				return err
			}
			rec, err := r.app.Ledger.ChangeTier(ctx, u.ID, domain.Tier(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprint(r.app.Out, formatter.FormatQuota(rec, r.app.Config.Limits.Quota.Cycle, time.Now()))
			return nil
		},
	}
}
