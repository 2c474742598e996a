package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/athlete"
	"github.com/hyperengineering/ascent/internal/types"
)

var createIfNotExists bool

var athleteCreateCmd = &cobra.Command{
	Use:   "create <athlete-id>",
	Short: "Create a new athlete",
	Long:  "Create a new athlete with the given ID. Athlete IDs are lowercase alphanumeric with hyphens (e.g., sam or sam-2).",
	Args:  cobra.ExactArgs(1),
	RunE:  runAthleteCreate,
}

func init() {
	athleteCreateCmd.Flags().BoolVar(&createIfNotExists, "if-not-exists", false,
		"Exit 0 if athlete already exists")
}

func runAthleteCreate(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	profile := athlete.NewProfile(applyProfileFlags(cmd, types.Profile{}))
	if err := validateProfile(profile); err != nil {
		return err
	}

	mgr, err := resolveManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	a, err := mgr.Create(ctx, id, profile)
	if err != nil {
		if errors.Is(err, athlete.ErrAthleteAlreadyExists) && createIfNotExists {
			info, infoErr := mgr.Info(ctx, id)
			if infoErr != nil {
				return fmt.Errorf("athlete exists but could not be loaded: %w", infoErr)
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":              info.ID,
					"created":         info.Created,
					"already_existed": true,
				})
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Athlete %q already exists\n", id)
			return nil
		}
		return err
	}

	p := a.Profile()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      a.ID,
			"profile": p,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created athlete %q (%.1f kg, %d days/week)\n", a.ID, p.BodyweightKg, p.DaysPerWeek)
	return nil
}
