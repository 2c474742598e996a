package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/types"
)

var (
	planExercise string
	planWeeks    int
	planStart    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a forward training plan",
	Long:  "Generate the session schedule for one exercise from the logged history. Plans are not stored; re-running with the same history yields the same plan.",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planExercise, "exercise", "e", "", "Exercise ID (required)")
	planCmd.Flags().IntVarP(&planWeeks, "weeks", "w", 0, "Weeks to plan (default from model.planner.default_weeks)")
	planCmd.Flags().StringVar(&planStart, "start", "", "First plan date, YYYY-MM-DD (default: today)")
	planCmd.MarkFlagRequired("exercise")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var start types.Date
	if planStart != "" {
		d, err := types.ParseDate(planStart)
		if err != nil {
			return err
		}
		start = d
	}
	weeks := planWeeks
	if weeks == 0 {
		weeks = cfg.Model.Planner.DefaultWeeks
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	def, err := catalog.Get(planExercise)
	if err != nil {
		return err
	}

	mgr, a, err := openAthlete(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	plans, err := a.Plan(ctx, def, start, weeks, cfg.Model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if plans == nil {
			plans = []types.SessionPlan{}
		}
		return printJSON(out, map[string]any{
			"exercise_id": def.ID,
			"weeks":       weeks,
			"sessions":    plans,
		})
	}

	if len(plans) == 0 {
		fmt.Fprintln(out, "No sessions planned.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "DATE\tWEEK\tTYPE\tVARIANT\tSETS\tTM\tADJUST")
	for _, p := range plans {
		adjust := string(p.Autoregulation)
		if p.Deload {
			adjust = "deload"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			p.Date,
			p.WeekNumber,
			p.SessionType,
			p.Variant,
			describePlan(p),
			p.ExpectedTM,
			adjust,
		)
	}
	return w.Flush()
}
