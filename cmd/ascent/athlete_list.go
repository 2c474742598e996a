package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/athlete"
)

var athleteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all athletes",
	Args:  cobra.NoArgs,
	RunE:  runAthleteList,
}

func runAthleteList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mgr, err := resolveManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	athletes, err := mgr.List(ctx)
	if err != nil {
		return fmt.Errorf("list athletes: %w", err)
	}

	if jsonOutput {
		if athletes == nil {
			athletes = []athlete.Info{}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"athletes": athletes,
			"total":    len(athletes),
		})
	}

	if len(athletes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No athletes found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tBODYWEIGHT\tDAYS\tSIZE\tLAST ACCESSED")
	for _, a := range athletes {
		name := a.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f kg\t%d\t%s\t%s\n",
			a.ID,
			name,
			a.BodyweightKg,
			a.DaysPerWeek,
			formatSize(a.SizeBytes),
			a.LastAccessed.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()

	return nil
}
