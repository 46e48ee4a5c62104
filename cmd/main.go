// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openhall/eventfront/internal/config"
	"github.com/openhall/eventfront/internal/database"
	"github.com/openhall/eventfront/internal/session"
	"github.com/openhall/eventfront/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// ── 1. Session storage: Postgres when a DSN is configured, memory otherwise.
	var store session.Store
	if cfg.SessionDSN != "" {
		pool, err := database.NewPool(ctx, cfg.SessionDSN)
		if err != nil {
			logger.Error("database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgStore := session.NewPGStore(pool, cfg.SessionTTL)
		if err := pgStore.Migrate(ctx); err != nil {
			logger.Error("migrate sessions table", "error", err)
			os.Exit(1)
		}
		store = pgStore
		logger.Info("session store: postgres")
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		logger.Info("session store: memory")
	}

	// ── 2. Wire up handlers and routes. ───────────────────────────────────
	handler, err := web.New(store, cfg.BackendURL,
		web.WithLogger(logger),
		web.WithSecureCookies(!cfg.Dev),
	)
	if err != nil {
		logger.Error("build handlers", "error", err)
		os.Exit(1)
	}

	router := web.NewRouter(handler, store, web.RouterConfig{
		CSRFKey:       cfg.CSRFKey,
		SecureCookies: !cfg.Dev,
		Logger:        logger,
	})

	// ── 3. Start server with graceful shutdown. ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
