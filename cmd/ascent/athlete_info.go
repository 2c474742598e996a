package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var athleteInfoCmd = &cobra.Command{
	Use:   "info <athlete-id>",
	Short: "Show detailed information about an athlete",
	Args:  cobra.ExactArgs(1),
	RunE:  runAthleteInfo,
}

func runAthleteInfo(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	mgr, err := resolveManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	info, err := mgr.Info(ctx, id)
	if err != nil {
		return err
	}
	a, err := mgr.Open(ctx, id)
	if err != nil {
		return err
	}
	stats, err := a.Store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("history stats: %w", err)
	}
	p := a.Profile()

	out := cmd.OutOrStdout()

	if jsonOutput {
		return printJSON(out, map[string]any{
			"id":            info.ID,
			"profile":       p,
			"size_bytes":    info.SizeBytes,
			"path":          a.BasePath,
			"history_stats": stats,
		})
	}

	fmt.Fprintf(out, "Athlete:       %s\n", info.ID)
	if p.Name != "" {
		fmt.Fprintf(out, "Name:          %s\n", p.Name)
	}
	fmt.Fprintf(out, "Bodyweight:    %.1f kg\n", p.BodyweightKg)
	fmt.Fprintf(out, "Days/Week:     %d\n", p.DaysPerWeek)
	for _, line := range goalLines("Target", p.Targets) {
		fmt.Fprintln(out, line)
	}
	for _, line := range goalLines("Baseline", p.Baselines) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Created:       %s\n", info.Created.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Last Accessed: %s\n", info.LastAccessed.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Sessions:      %d (%d sets)\n", stats.Sessions, stats.Sets)
	if stats.FirstDate != nil && stats.LastDate != nil {
		fmt.Fprintf(out, "History:       %s to %s\n", stats.FirstDate, stats.LastDate)
	}
	fmt.Fprintf(out, "Size:          %s\n", formatSize(info.SizeBytes))
	fmt.Fprintf(out, "Path:          %s\n", a.BasePath)

	return nil
}

// goalLines renders per-exercise goals sorted by exercise.
func goalLines(label string, goals map[string]int) []string {
	ids := make([]string, 0, len(goals))
	for id := range goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("%-15s%s %d", label+":", id, goals[id])
	}
	return lines
}
