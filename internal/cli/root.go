package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/config"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/llm"
)

// RootOptions configures Execute. Zero values use the process streams.
type RootOptions struct {
	Version string
	In      io.Reader
	Out     io.Writer
	Err     io.Writer
	// Client replaces the provider client; tests pass a fake.
	Client llm.Client
	// Interactive overrides terminal detection.
	Interactive *bool
}

// root carries the flags and, once PersistentPreRunE has run, the App.
type root struct {
	opts       RootOptions
	configPath string
	dbPath     string
	logLevel   string
	app        *App
}

// Execute runs the command line in args and releases the App afterwards,
// whether or not the command succeeded.
func Execute(ctx context.Context, opts RootOptions, args []string) error {
	r, cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if r.app != nil {
		if cerr := r.app.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ErrorText is how an error is shown to the person at the terminal. Typed
// errors get their user-facing message; anything else is local detail the
// user may need, such as a bad flag or a missing file.
func ErrorText(err error) string {
	if _, ok := apperr.As(err); ok {
		return apperr.UserMessage(err)
	}
	return err.Error()
}

// newRootCmd builds the "promptforge" command tree. The App is wired lazily
// so --config and --db take effect.
func newRootCmd(opts RootOptions) (*root, *cobra.Command) {
	r := &root{opts: opts}
	var mode domain.Mode

	cmd := &cobra.Command{
		Use:           "promptforge",
		Short:         "Turn rough task descriptions into polished prompts",
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.wire(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.app.IsInteractive() {
				return runShell(cmd.Context(), r.app, mode)
			}
			return runLineMode(cmd.Context(), r.app, mode, "")
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&r.configPath, "config", "", "config file (default ~/.promptforge/config.yaml)")
	flags.StringVar(&r.dbPath, "db", "", "database path (overrides storage.db_path)")
	flags.StringVar(&r.logLevel, "log-level", "", "debug, info, warn or error")
	addModeFlags(cmd.Flags(), &mode)

	cmd.AddCommand(
		newShellCmd(r),
		newAskCmd(r),
		newServeCmd(r),
		newMCPCmd(r),
		newHistoryCmd(r),
		newPrefsCmd(r),
		newQuotaCmd(r),
		newDraftCmd(r),
		newLoginCmd(r),
		newLogoutCmd(r),
		newConfigCmd(r),
	)
	if opts.Out != nil {
		cmd.SetOut(opts.Out)
	}
	if opts.Err != nil {
		cmd.SetErr(opts.Err)
	}
	return r, cmd
}

func (r *root) wire(cmd *cobra.Command) error {
	if r.app != nil {
		return nil
	}
	path := r.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if r.dbPath != "" {
		cfg.Storage.DBPath = r.dbPath
	}
	if r.logLevel != "" {
		cfg.Log.Level = r.logLevel
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	errOut := r.opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	app, err := Wire(cmd.Context(), Options{
		Config:  cfg,
		Logger:  logger,
		Version: r.opts.Version,
		Client:  r.opts.Client,
		In:      r.opts.In,
		Out:     r.opts.Out,
		Err:     r.opts.Err,
	})
	if err != nil {
		return fmt.Errorf("starting promptforge: %w", err)
	}
	if r.opts.Interactive != nil {
		interactive := *r.opts.Interactive
		app.IsInteractive = func() bool { return interactive }
	}
	r.app = app
	return nil
}
