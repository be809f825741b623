package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/logging"
	"github.com/JonMunkholm/datagrid/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	store, err := newStore(cfg)
	if err != nil {
		slog.Error("failed to build store", "error", err)
		os.Exit(1)
	}

	limiter := core.NewImportLimiter(core.DefaultMaxConcurrentImports, cfg.Import.MaxWaitTime)
	server := web.NewServer(store, limiter, cfg)

	// Background jobs stop after the server, so the final autosave sees
	// every request that completed.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	autosaveDone := make(chan struct{})
	go func() {
		defer close(autosaveDone)
		if cfg.Snapshot.Enabled() {
			store.StartAutosave(jobCtx, cfg.Snapshot.Path, cfg.Snapshot.Interval)
		}
	}()

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for an active import to be applied (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		<-autosaveDone
		os.Exit(1)
	}

	<-shutdownDone
	cancelJobs()
	<-autosaveDone
	slog.Info("server stopped")
}

// newStore builds the store from the configured columns, restoring the
// snapshot when one exists and seeding the demo rows otherwise.
func newStore(cfg *config.Config) (*core.Store, error) {
	columns := core.DefaultColumns()
	if cfg.Grid.ColumnsFile != "" {
		loaded, err := config.LoadColumns(cfg.Grid.ColumnsFile)
		if err != nil {
			return nil, err
		}
		columns = loaded
		slog.Info("columns loaded", "file", cfg.Grid.ColumnsFile, "count", len(columns))
	}

	store := core.NewStore(
		core.WithLogger(slog.Default()),
		core.WithColumns(columns),
		core.WithPageSize(cfg.Grid.DefaultPageSize),
	)

	if cfg.Snapshot.Enabled() {
		doc, err := core.LoadDocument(cfg.Snapshot.Path)
		switch {
		case err == nil:
			store.Restore(doc)
			slog.Info("snapshot restored", "path", cfg.Snapshot.Path, "rows", len(doc.Rows))
			return store, nil
		case core.IsNoSnapshot(err):
			slog.Info("no snapshot found, starting fresh", "path", cfg.Snapshot.Path)
		default:
			return nil, err
		}
	}

	if cfg.Grid.SeedSampleData {
		store.ReplaceAllData(core.SampleRows())
	}
	return store, nil
}
