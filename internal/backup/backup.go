package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hyperengineering/ascent/internal/athlete"
)

// AthleteSource lists and opens athletes.
type AthleteSource interface {
	List(ctx context.Context) ([]athlete.Info, error)
	Open(ctx context.Context, id string) (*athlete.Athlete, error)
}

// Summary reports one backup pass over every athlete.
type Summary struct {
	Athletes int `json:"athletes"`
	Sessions int `json:"sessions"`
	Failed   int `json:"failed"`
}

// Runner exports athlete histories as JSONL and hands them to an Uploader.
type Runner struct {
	source   AthleteSource
	uploader Uploader
}

// NewRunner creates a Runner.
func NewRunner(source AthleteSource, uploader Uploader) *Runner {
	return &Runner{source: source, uploader: uploader}
}

// BackupAthlete exports one athlete's full history and uploads it.
// Returns the number of sessions exported.
func (r *Runner) BackupAthlete(ctx context.Context, id string) (int, error) {
	a, err := r.source.Open(ctx, id)
	if err != nil {
		return 0, err
	}

	f, err := os.CreateTemp("", "ascent-"+id+"-*.jsonl")
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(f.Name())

	n, err := a.Store.ExportJSONL(ctx, f, "")
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("export history: %w", err)
	}

	if err := r.uploader.Upload(ctx, id, f.Name()); err != nil {
		return 0, err
	}
	return n, nil
}

// BackupAll backs up every athlete. A failing athlete is logged and counted
// without stopping the pass; the returned error joins every failure.
func (r *Runner) BackupAll(ctx context.Context) (Summary, error) {
	start := time.Now()
	infos, err := r.source.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list athletes: %w", err)
	}

	var sum Summary
	var errs []error
	for _, info := range infos {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		n, err := r.BackupAthlete(ctx, info.ID)
		if err != nil {
			sum.Failed++
			errs = append(errs, fmt.Errorf("athlete %q: %w", info.ID, err))
			slog.Warn("athlete backup failed",
				"component", "backup",
				"action", "backup_failed",
				"athlete_id", info.ID,
				"error", err,
			)
			continue
		}
		sum.Athletes++
		sum.Sessions += n
	}

	slog.Info("backup pass completed",
		"component", "backup",
		"action", "backup_complete",
		"athletes", sum.Athletes,
		"sessions", sum.Sessions,
		"failed", sum.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, errors.Join(errs...)
}
