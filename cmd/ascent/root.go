package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/athlete"
	"github.com/hyperengineering/ascent/internal/config"
	"github.com/hyperengineering/ascent/internal/exercise"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	configPath   string
	rootOverride string
	athleteID    string
	jsonOutput   bool

	// cfg is loaded once per invocation by PersistentPreRunE.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "ascent",
	Short:             "Ascent - progressive-overload planner for bodyweight strength work",
	Long:              "Log training sessions, track training max and fatigue, and generate forward plans for bodyweight exercises.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (default: $ASCENT_CONFIG_PATH or config/ascent.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootOverride, "root", "",
		"Athletes root path (overrides config and ASCENT_ATHLETES_ROOT)")
	rootCmd.PersistentFlags().StringVar(&athleteID, "athlete", athlete.DefaultAthleteID,
		"Athlete ID")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	rootCmd.AddCommand(athleteCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads configuration and initializes the logger. Logs go to stderr so
// stdout stays machine-readable.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if rootOverride != "" {
		cfg.Athletes.RootPath = rootOverride
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// resolveManager creates an athlete Manager rooted at the configured path.
func resolveManager() (*athlete.Manager, error) {
	rootPath, err := expandHome(cfg.Athletes.RootPath)
	if err != nil {
		return nil, err
	}
	return athlete.NewManager(rootPath)
}

// openAthlete resolves the manager and opens the --athlete athlete.
// The caller closes the returned manager.
func openAthlete(ctx context.Context) (*athlete.Manager, *athlete.Athlete, error) {
	mgr, err := resolveManager()
	if err != nil {
		return nil, nil, err
	}
	a, err := mgr.Open(ctx, athleteID)
	if err != nil {
		mgr.Close()
		return nil, nil, err
	}
	return mgr, a, nil
}

// loadCatalog returns the built-in exercises, overlaid with the configured
// catalog file when one is set.
func loadCatalog() (*exercise.Catalog, error) {
	return exercise.Load(cfg.Exercises.Path)
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "component", "cli", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "component", "cli", "worker", name)
	}()
}
