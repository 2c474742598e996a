// Package worker runs the background jobs of the ascent server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/ascent/internal/backup"
)

// BackupRunner backs up every athlete's history in one pass.
type BackupRunner interface {
	BackupAll(ctx context.Context) (backup.Summary, error)
}

// BackupWorker periodically uploads every athlete's history export.
type BackupWorker struct {
	runner   BackupRunner
	interval time.Duration
}

// NewBackupWorker creates a worker that runs a backup pass every interval.
func NewBackupWorker(runner BackupRunner, interval time.Duration) *BackupWorker {
	return &BackupWorker{
		runner:   runner,
		interval: interval,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// A pass runs immediately on start, then on every tick.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "history-backup",
		"action", "worker_started",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runBackup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "history-backup",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runBackup(ctx)
		}
	}
}

// runBackup executes a single backup pass. Per-athlete failures are logged
// by the runner; here only the cycle outcome is reported.
func (w *BackupWorker) runBackup(ctx context.Context) {
	sum, err := w.runner.BackupAll(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		slog.Warn("backup cycle finished with failures",
			"component", "worker",
			"worker", "history-backup",
			"action", "cycle_failed",
			"succeeded", sum.Athletes,
			"failed", sum.Failed,
			"error", err,
		)
		return
	}
	slog.Debug("backup cycle completed",
		"component", "worker",
		"worker", "history-backup",
		"action", "cycle_complete",
		"succeeded", sum.Athletes,
		"sessions", sum.Sessions,
	)
}
