package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"virtualtourist/internal/api"
	"virtualtourist/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Example: `  # Start on the configured port
  tourist serve

  # Start on a custom port
  tourist serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				opts.cfg.Port = port
			}
			return withApp(cmd, opts, func(a *app.App) error {
				return serve(cmd.Context(), a)
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides config)")

	return cmd
}

func serve(ctx context.Context, a *app.App) error {
	server := api.NewEcho()
	api.NewAPIService(a.Maps, a.Albums, a.Store).SetRoutes(server)

	addr := fmt.Sprintf(":%d", a.Config.Port)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		slog.Info("server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
