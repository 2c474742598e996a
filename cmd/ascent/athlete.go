package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperengineering/ascent/internal/types"
	"github.com/hyperengineering/ascent/internal/validation"
)

var athleteCmd = &cobra.Command{
	Use:   "athlete",
	Short: "Manage athletes",
	Long:  "Create, list, inspect, update, and delete athletes. Each athlete has a profile and an isolated session history.",
}

// Profile flags shared by create and update.
var (
	profileName       string
	profileBodyweight float64
	profileDays       int
	profileTargets    map[string]int
	profileBaselines  map[string]int
)

func init() {
	for _, c := range []*cobra.Command{athleteCreateCmd, athleteUpdateCmd} {
		c.Flags().StringVar(&profileName, "name", "", "Display name")
		c.Flags().Float64Var(&profileBodyweight, "bodyweight", 0, "Current bodyweight in kg")
		c.Flags().IntVar(&profileDays, "days", 0, "Training days per week (3 or 4)")
		c.Flags().StringToIntVar(&profileTargets, "target", nil, "Goal max per exercise, e.g. pull_up=20")
		c.Flags().StringToIntVar(&profileBaselines, "baseline", nil, "Known max per exercise before any TEST, e.g. pull_up=8")
	}

	athleteCmd.AddCommand(athleteCreateCmd)
	athleteCmd.AddCommand(athleteListCmd)
	athleteCmd.AddCommand(athleteInfoCmd)
	athleteCmd.AddCommand(athleteUpdateCmd)
	athleteCmd.AddCommand(athleteDeleteCmd)
}

// applyProfileFlags copies every flag the user set onto p.
func applyProfileFlags(cmd *cobra.Command, p types.Profile) types.Profile {
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = profileName
	}
	if flags.Changed("bodyweight") {
		p.BodyweightKg = profileBodyweight
	}
	if flags.Changed("days") {
		p.DaysPerWeek = profileDays
	}
	if flags.Changed("target") {
		p.Targets = profileTargets
	}
	if flags.Changed("baseline") {
		p.Baselines = profileBaselines
	}
	return p
}

// validateProfile checks p against the configured exercise catalog.
func validateProfile(p types.Profile) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	if errs := validation.ValidateProfile(p, catalog.IDs()); len(errs) > 0 {
		return validation.Errors(errs)
	}
	return nil
}
