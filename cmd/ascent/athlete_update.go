package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var athleteUpdateCmd = &cobra.Command{
	Use:   "update <athlete-id>",
	Short: "Update an athlete's profile",
	Long:  "Update the profile fields given as flags. Fields without a flag keep their current value.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAthleteUpdate,
}

func runAthleteUpdate(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	mgr, err := resolveManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	a, err := mgr.Open(ctx, id)
	if err != nil {
		return err
	}

	p := applyProfileFlags(cmd, a.Profile())
	if err := validateProfile(p); err != nil {
		return err
	}
	if err := mgr.SaveProfile(ctx, id, p); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      id,
			"profile": a.Profile(),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated athlete %q\n", id)
	return nil
}
