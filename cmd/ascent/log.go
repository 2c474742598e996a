package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var logFile string

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log a training session",
	Long: `Log one session read as JSON from --file or stdin. A session with the same
exercise, date and type replaces the earlier one. The athlete's profile
bodyweight is used when the session omits it.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVarP(&logFile, "file", "f", "", "Session JSON file (default: stdin)")
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := readSession(cmd, logFile)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	def, err := catalog.Get(s.ExerciseID)
	if err != nil {
		return err
	}

	mgr, a, err := openAthlete(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if s.BodyweightKg == 0 {
		s.BodyweightKg = a.Profile().BodyweightKg
	}

	res, err := a.LogSession(ctx, s, def, cfg.Model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, res)
	}

	verb := "Logged"
	if res.Replaced {
		verb = "Replaced"
	}
	fmt.Fprintf(out, "%s %s %s on %s (%s)\n", verb, res.Session.ExerciseID, res.Session.SessionType, res.Session.Date, res.Session.ID)
	if res.Estimate != nil {
		fmt.Fprintf(out, "Estimated max: %.1f (fatigue index) / %.1f (reps in reserve), %s confidence\n",
			res.Estimate.FIEst, res.Estimate.NuzzoEst, res.Estimate.Confidence)
	}
	if res.PersonalBest {
		fmt.Fprintf(out, "New personal best! (previous best TEST: %d)\n", res.PreviousBest)
	}
	return nil
}
