package worker

import (
	"context"
	"log/slog"
	"time"
)

// ProfileFlusher writes dirty athlete profiles to disk.
type ProfileFlusher interface {
	FlushProfiles(ctx context.Context) (int, error)
}

// ProfileFlushWorker periodically persists athlete access times so a crash
// loses at most one interval of last_accessed updates.
type ProfileFlushWorker struct {
	flusher  ProfileFlusher
	interval time.Duration
}

// NewProfileFlushWorker creates a worker with the given flusher and interval.
func NewProfileFlushWorker(flusher ProfileFlusher, interval time.Duration) *ProfileFlushWorker {
	return &ProfileFlushWorker{
		flusher:  flusher,
		interval: interval,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// Does NOT run immediately on start; nothing is dirty yet.
func (w *ProfileFlushWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "profile-flush",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "profile-flush",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runFlush(ctx)
		}
	}
}

// runFlush executes a single flush cycle.
func (w *ProfileFlushWorker) runFlush(ctx context.Context) {
	start := time.Now()

	checked, err := w.flusher.FlushProfiles(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("profile flush failed",
			"component", "worker",
			"action", "flush_failed",
			"error", err,
		)
		return
	}

	slog.Debug("profile flush completed",
		"component", "worker",
		"action", "flush_complete",
		"athletes", checked,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
