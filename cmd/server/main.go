package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fileembed/internal/server/api"
	"fileembed/internal/server/config"
	"fileembed/internal/server/database"
	"fileembed/internal/server/service"
	"fileembed/internal/server/store"
)

func main() {
	// Load config
	cfg := config.Load()

	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"store_backend", cfg.StoreBackend,
		"max_file_size", cfg.MaxFileSize,
	)

	ctx := context.Background()

	// Initialize store
	var (
		fileStore store.Store
		db        *database.DB
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		var err error
		db, err = database.New(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations complete")

		fileStore = store.NewCachedStore(database.NewFileRepository(db), cfg.CacheSize, cfg.CacheTTL)
		slog.Info("file store initialized", "backend", cfg.StoreBackend,
			"cache_size", cfg.CacheSize, "cache_ttl", cfg.CacheTTL)
	default:
		fileStore = store.NewMemoryStore()
		slog.Info("file store initialized", "backend", cfg.StoreBackend)
	}

	// Initialize service
	svc := service.NewFileService(fileStore, cfg)

	// Setup HTTP router
	handler := api.NewHandler(svc, db, cfg.MaxFileSize)
	e, err := api.SetupRouter(handler, cfg)
	if err != nil {
		slog.Error("failed to set up router", "error", err)
		os.Exit(1)
	}

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight ones
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited cleanly")
}
