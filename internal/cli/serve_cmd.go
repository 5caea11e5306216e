package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/promptforge/internal/api"
)

func newServeCmd(r *root) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prompt API over HTTP",
		Long: `Serve the clarifying-question, prompt and edit endpoints over HTTP.

Requests authenticate with "Authorization: Bearer <token>" using the
tokens listed under server.tokens in the config file. Anonymous requests
may fetch clarifying questions but not generate prompts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := r.app
			if addr == "" {
				addr = app.Config.Server.Addr
			}
			handler := api.NewHandler(api.Deps{
				Pipeline: app.Pipeline,
				Tokens:   app.Config.Tokens(),
				Logger:   app.Logger,
			})
			return serveHTTP(cmd.Context(), app, addr, handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

// serveHTTP runs handler until ctx ends, then drains in-flight requests for
// up to the configured shutdown timeout.
func serveHTTP(ctx context.Context, app *App, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("serving", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.Config.Server.ShutdownTimeout)
		defer cancel()
		app.Logger.Info("shutting down", "timeout", app.Config.Server.ShutdownTimeout)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newMCPCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the prompt tools over MCP on stdio",
		Long: `Run a Model Context Protocol server on standard input and output.
Tools run as the signed-in CLI user; sign in with "promptforge login"
before generating prompts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := r.app
			s := api.NewMCPServer(api.MCPDeps{
				Pipeline:  app.Pipeline,
				Identity:  app.Identity,
				SessionID: app.Identity.SessionID(),
				Version:   app.Version,
			})
			stdio := server.NewStdioServer(s)
			if err := stdio.Listen(cmd.Context(), os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp: %w", err)
			}
			return nil
		},
	}
}
