package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/athlete"
)

var deleteForce bool

var athleteDeleteCmd = &cobra.Command{
	Use:   "delete <athlete-id>",
	Short: "Delete an athlete and all their history",
	Long:  "Permanently delete an athlete and all their history. The default athlete cannot be deleted. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAthleteDelete,
}

func init() {
	athleteDeleteCmd.Flags().BoolVar(&deleteForce, "force", false,
		"Skip confirmation prompt")
}

func runAthleteDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	// Early check: prevent default athlete deletion with a clear message
	if athlete.IsDefaultAthlete(id) {
		return fmt.Errorf("cannot delete the default athlete")
	}
	if err := athlete.ValidateAthleteID(id); err != nil {
		return err
	}

	mgr, err := resolveManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	// Interactive confirmation unless --force
	if !deleteForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "WARNING: This will permanently delete athlete %q and all their history.\n", id)
		fmt.Fprint(errOut, "Type the athlete ID to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}

		if strings.TrimSpace(input) != id {
			fmt.Fprintln(errOut, "Aborted. Athlete ID did not match.")
			return nil
		}
	}

	if err := mgr.Delete(ctx, id); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      id,
			"deleted": true,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted athlete %q\n", id)
	return nil
}
