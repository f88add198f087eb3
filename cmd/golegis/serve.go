package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/golegis"
	"github.com/brunobiangulo/golegis/metrics"
	"github.com/brunobiangulo/golegis/store"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		addr   string
		dbPath string
		noDB   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve extraction and stored articles over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			return serve(cfg, !noDB)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Database path")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "Run without a database (extraction only)")
	return cmd
}

func serve(cfg golegis.Config, withDB bool) error {
	m := metrics.New(true)
	ext, err := golegis.New(cfg, golegis.WithMetrics(m))
	if err != nil {
		return err
	}

	var st *store.Store
	if withDB {
		st, err = store.New(cfg.ResolveDBPath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()
	}

	h, err := newHandler(ext, st, m, cfg.Server.CacheSize)
	if err != nil {
		return err
	}

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = h.routes()
	handler = logMiddleware(handler)
	handler = authMiddleware(cfg.Server.APIKey, handler)
	handler = corsMiddleware(cfg.Server.CORSOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // extraction of large corpora can be long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr, "db", withDB)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-done:
	}
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
