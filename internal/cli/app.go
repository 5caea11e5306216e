package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/promptforge/internal/config"
	"github.com/alexanderramin/promptforge/internal/conversation"
	"github.com/alexanderramin/promptforge/internal/db"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/draft"
	"github.com/alexanderramin/promptforge/internal/llm"
	"github.com/alexanderramin/promptforge/internal/pipeline"
	"github.com/alexanderramin/promptforge/internal/quota"
	"github.com/alexanderramin/promptforge/internal/ratelimit"
	"github.com/alexanderramin/promptforge/internal/repository"
)

// App holds everything the CLI commands share: configuration, storage and
// the wired pipeline.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Pipeline *pipeline.Pipeline
	Ledger   *quota.Ledger
	History  *repository.SQLiteHistoryRepo
	Prefs    *repository.SQLitePreferenceRepo
	Events   *repository.SQLiteEventRepo
	Drafts   *draft.Store
	Identity *Identity
	Version  string

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// IsInteractive reports whether stdin is a terminal. The root command
	// starts the shell when it is and line mode otherwise.
	IsInteractive func() bool
}

// Options configures Wire.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Version string
	// Client overrides the provider client built from Config.LLM.
	Client llm.Client
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
}

// Wire opens the database and builds the App. Close releases it.
func Wire(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	database, err := db.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	uow := db.NewSQLiteUnitOfWork(database)

	client := opts.Client
	if client == nil {
		client, err = llm.NewOpenAIClient(cfg.LLM, llm.NewLogObserver(logger))
		if errors.Is(err, llm.ErrNotConfigured) {
			logger.Warn("no provider API key set; prompts will fall back to the task text")
			client = nil
		} else if err != nil {
			database.Close()
			return nil, err
		}
	}

	identity, err := LoadIdentity(ctx, repository.NewSQLiteLocalSessionRepo(database), uow, cfg.StartUser(), logger)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("loading session: %w", err)
	}

	history := repository.NewSQLiteHistoryRepo(database)
	events := repository.NewSQLiteEventRepo(database)
	ledger := quota.NewLedger(repository.NewSQLiteSubscriptionRepo(database), cfg.Limits.Quota)

	p := pipeline.New(pipeline.Config{
		AllowFallback: cfg.Flow.AllowFallback,
		StandardModel: cfg.LLM.StandardModel,
		PremiumModel:  cfg.LLM.PremiumModel,
	}, pipeline.Deps{
		Client:  client,
		Ledger:  ledger,
		Limiter: ratelimit.New(cfg.Limits.Rate),
		History: history,
		Events:  events,
		Logger:  logger,
	})

	app := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       database,
		Pipeline: p,
		Ledger:   ledger,
		History:  history,
		Prefs:    repository.NewSQLitePreferenceRepo(database),
		Events:   events,
		Drafts:   draft.NewStore(repository.NewSQLiteDraftRepo(database), logger),
		Identity: identity,
		Version:  opts.Version,
		In:       opts.In,
		Out:      opts.Out,
		Err:      opts.Err,
	}
	if app.In == nil {
		app.In = os.Stdin
	}
	if app.Out == nil {
		app.Out = os.Stdout
	}
	if app.Err == nil {
		app.Err = os.Stderr
	}
	app.IsInteractive = func() bool {
		f, ok := app.In.(*os.File)
		if !ok {
			return false
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return app, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// NewController builds a conversation controller for this process. The
// controller is bound to the persistent session id.
func (a *App) NewController(mode domain.Mode) *conversation.Controller {
	cfg := conversation.Config{
		DefaultMode:     a.Config.Flow.DefaultMode,
		PreferenceOrder: a.Config.Flow.PreferenceOrder,
		SessionID:       a.Identity.SessionID(),
		Addr:            "local",
	}
	if mode != "" {
		cfg.DefaultMode = mode
	}
	return conversation.New(cfg, conversation.Deps{
		Pipeline:    a.Pipeline,
		Identity:    a.Identity,
		Preferences: a.Prefs,
		Events:      a.Events,
		Logger:      a.Logger,
	})
}

// DraftScope returns the scope drafts are saved under right now.
func (a *App) DraftScope(ctx context.Context) draft.Scope {
	s := draft.Scope{SessionID: a.Identity.SessionID()}
	if u, _ := a.Identity.CurrentUser(ctx); u != nil {
		s.UserID = u.ID
	}
	return s
}

// AttachDrafts restores the saved draft into ctrl and keeps saving every
// change. The returned func flushes and stops the saver.
func (a *App) AttachDrafts(ctx context.Context, ctrl *conversation.Controller) (restored bool, stop func()) {
	rec, ok, err := a.Drafts.Load(ctx, a.DraftScope(ctx))
	if err != nil {
		a.Logger.Warn("loading draft failed", "error", err)
	}
	if ok {
		ctrl.Restore(rec.State, rec.Snapshot)
	}
	saver := draft.NewSaver(a.Drafts, a.DraftScope, a.Config.Flow.DraftDebounce, a.Logger)
	ctrl.Subscribe(func(u conversation.Update) {
		saver.Observe(u.State, u.Snapshot)
	})
	return ok, saver.Close
}
