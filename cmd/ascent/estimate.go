package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/maxest"
)

var estimateFile string

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the current max from one session's sets",
	Long:  "Read a session as JSON from --file or stdin and estimate max reps from its completed sets. Nothing is stored.",
	Args:  cobra.NoArgs,
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&estimateFile, "file", "f", "", "Session JSON file (default: stdin)")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	s, err := readSession(cmd, estimateFile)
	if err != nil {
		return err
	}

	est, err := maxest.Estimate(s.CompletedSets, cfg.Model.Estimator)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, est)
	}

	fmt.Fprintf(out, "Fatigue index:  %.1f (%.1f reps to failure in set 1)\n", est.FIEst, est.FIReps)
	fmt.Fprintf(out, "RIR estimate:   %.1f (inferred RIR %.1f)\n", est.NuzzoEst, est.InferredRIR)
	fmt.Fprintf(out, "Confidence:     %s (%d sets)\n", est.Confidence, est.SetsUsed)
	return nil
}
