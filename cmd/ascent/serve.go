package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/api"
	"github.com/hyperengineering/ascent/internal/backup"
	"github.com/hyperengineering/ascent/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serve the HTTP API until SIGINT or SIGTERM, then drain in-flight requests and stop background workers.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Athletes and exercise catalog
	mgr, err := resolveManager()
	if err != nil {
		return err
	}
	slog.Info("athlete manager initialized", "component", "cli", "path", mgr.RootPath())

	catalog, err := loadCatalog()
	if err != nil {
		mgr.Close()
		return err
	}
	slog.Info("exercise catalog loaded", "component", "cli", "exercises", len(catalog.IDs()))

	// 3. Initialize HTTP router
	if cfg.Auth.APIKey == "" {
		slog.Warn("no API key configured, authentication disabled", "component", "cli")
	}
	handler := api.NewHandler(mgr, catalog, cfg.Model, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)

	// 4. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 5. Background workers
	var wg sync.WaitGroup
	startWorker(ctx, &wg, "profile-flush",
		worker.NewProfileFlushWorker(mgr, time.Duration(cfg.Athletes.FlushInterval)).Run)

	if cfg.Backup.Bucket != "" {
		uploader, err := backup.NewUploader(cfg.Backup)
		if err != nil {
			cancel()
			wg.Wait()
			mgr.Close()
			return err
		}
		runner := backup.NewRunner(mgr, uploader)
		startWorker(ctx, &wg, "history-backup",
			worker.NewBackupWorker(runner, time.Duration(cfg.Backup.Interval)).Run)
	}

	// 6. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "component", "cli", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "component", "cli", "error", err)
			cancel() // Trigger shutdown on server failure
		}
	}()

	// 7. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated", "component", "cli")

	// 8. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 8a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "component", "cli", "error", err)
	}

	// 8b. Wait for workers to complete
	wg.Wait()

	// 8c. Close athletes (flushes profiles)
	if err := mgr.Close(); err != nil {
		slog.Error("athlete manager close error", "component", "cli", "error", err)
	}

	slog.Info("shutdown complete", "component", "cli")
	return nil
}
