package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"designate/internal/api"
	"designate/pkg/config"
	"designate/pkg/logging"
	"designate/pkg/probe"
	"designate/pkg/version"
	"designate/pkg/watcher"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the headless loop with the HTTP bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			cleanupLogs, err := logging.Init(&cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer cleanupLogs()

			slog.Info("designate started", "version", version.Version)
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.address)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := probe.AnalyzeResults(probe.Run(ctx, rt.probes())); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	if rt.cfg.Defs.Watch {
		w, err := watcher.NewService(rt.cfg.Defs.Path, rt.onDefsFileChanged)
		if err != nil {
			slog.Warn("Defs watcher unavailable", "error", err)
		} else {
			if err := w.Start(ctx); err != nil {
				slog.Warn("Defs watcher failed to start", "error", err)
			}
			defer w.Close()
		}
	}

	go rt.loop.Start(ctx)

	srv := api.NewServer(rt.cfg.Server.Address, api.Handlers{
		Tools:    api.NewToolsHandler(rt.ctrl, rt.menus, rt.host, rt.store),
		Settings: api.NewSettingsHandler(rt.settings, rt.loop.Later(), rt.ctrl.SettingsChanged),
		Input:    api.NewInputHandler(rt.queue),
		Stats:    rt.stats,
	}, cancel)
	srv.Handler = loggingMiddleware(srv.Handler)

	return runServerLifecycle(ctx, srv)
}

func runServerLifecycle(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
