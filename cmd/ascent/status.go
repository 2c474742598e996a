package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/types"
)

var (
	statusExercise string
	statusAsOf     string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show training status for an exercise",
	Long:  "Report training max, trend, fatigue, readiness and the weekly volume decision for one exercise.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusExercise, "exercise", "e", "", "Exercise ID (required)")
	statusCmd.Flags().StringVar(&statusAsOf, "as-of", "", "Assess as of this date, YYYY-MM-DD (default: last session)")
	statusCmd.MarkFlagRequired("exercise")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var asOf types.Date
	if statusAsOf != "" {
		d, err := types.ParseDate(statusAsOf)
		if err != nil {
			return err
		}
		asOf = d
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	def, err := catalog.Get(statusExercise)
	if err != nil {
		return err
	}

	mgr, a, err := openAthlete(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	st, err := a.Status(ctx, def, asOf, cfg.Model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, st)
	}

	latest := "-"
	if st.LatestTestMax != nil {
		latest = fmt.Sprintf("%d", *st.LatestTestMax)
	}
	deload := "no"
	if st.DeloadRecommended {
		deload = "yes (" + strings.Join(st.DeloadReasons, ", ") + ")"
	}

	w := newTabWriter(out)
	fmt.Fprintf(w, "Exercise:\t%s\n", st.ExerciseID)
	fmt.Fprintf(w, "As of:\t%s\n", st.AsOf)
	fmt.Fprintf(w, "Training max:\t%d\n", st.TrainingMax)
	fmt.Fprintf(w, "Latest TEST:\t%s\n", latest)
	fmt.Fprintf(w, "Trend:\t%+.2f reps/week\n", st.TrendSlope)
	fmt.Fprintf(w, "Plateau:\t%t\n", st.IsPlateau)
	fmt.Fprintf(w, "Deload:\t%s\n", deload)
	fmt.Fprintf(w, "Compliance:\t%.0f%% (%d unplanned)\n", st.ComplianceRatio*100, st.UnplannedSessions)
	fmt.Fprintf(w, "Fatigue score:\t%.2f\n", st.FatigueScore)
	fmt.Fprintf(w, "Readiness z:\t%+.2f\n", st.ReadinessZ)
	fmt.Fprintf(w, "Volume:\t%s (%d -> %d sets/week)\n", st.Volume.Action, st.Volume.CurrentSets, st.Volume.TargetSets)
	return w.Flush()
}
