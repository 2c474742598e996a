package exercise

import "github.com/hyperengineering/ascent/internal/types"

// Built-in exercise ids.
const (
	PullUp = "pull_up"
	Dip    = "dip"
	BSS    = "bss"
)

func builtins() []Definition {
	return []Definition{pullUp(), dip(), bss()}
}

func pullUp() Definition {
	return Definition{
		ID:                 PullUp,
		Name:               "Pull-up",
		BodyweightFraction: 1.0,
		Variants:           []string{"pronated", "neutral", "supinated", "wide"},
		VariantFactors: map[string]float64{
			"pronated":  1.00,
			"neutral":   0.95,
			"supinated": 0.92,
			"wide":      1.08,
		},
		HypertrophyVariants: [2]string{"pronated", "neutral"},
		Params: map[types.SessionType]SessionParams{
			types.SessionStrength:    {RepsFractionLow: 0.35, RepsFractionHigh: 0.55, RepsMin: 3, RepsMax: 8, SetsMin: 4, SetsMax: 6, RestMin: 180, RestMax: 300, RIRTarget: 2},
			types.SessionHypertrophy: {RepsFractionLow: 0.60, RepsFractionHigh: 0.80, RepsMin: 6, RepsMax: 12, SetsMin: 4, SetsMax: 6, RestMin: 120, RestMax: 180, RIRTarget: 2},
			types.SessionEndurance:   {RepsFractionLow: 0.40, RepsFractionHigh: 0.60, RepsMin: 3, RepsMax: 10, SetsMin: 6, SetsMax: 10, RestMin: 60, RestMax: 90, RIRTarget: 3},
			types.SessionTechnique:   {RepsFractionLow: 0.20, RepsFractionHigh: 0.40, RepsMin: 2, RepsMax: 5, SetsMin: 4, SetsMax: 8, RestMin: 60, RestMax: 120, RIRTarget: 4},
			types.SessionTest:        {RepsFractionLow: 1.0, RepsFractionHigh: 1.0, RepsMin: 1, RepsMax: 100, SetsMin: 1, SetsMax: 1, RestMin: 180, RestMax: 300, RIRTarget: 0},
		},
		Target:                    Target{Metric: TargetMaxReps, Value: 30},
		Weight:                    Weight{ThresholdTM: 9, KgPerRep: 0.5, IncrementKg: 1.25, MaxKg: 20},
		EnduranceVolumeMultiplier: 3.0,
	}
}

func dip() Definition {
	return Definition{
		ID:                 Dip,
		Name:               "Parallel bar dip",
		BodyweightFraction: 0.92,
		Variants:           []string{"standard", "chest_lean", "tricep_upright"},
		VariantFactors: map[string]float64{
			"standard":       1.00,
			"chest_lean":     0.97,
			"tricep_upright": 1.05,
		},
		HypertrophyVariants: [2]string{"chest_lean", "tricep_upright"},
		Params: map[types.SessionType]SessionParams{
			types.SessionStrength:    {RepsFractionLow: 0.35, RepsFractionHigh: 0.55, RepsMin: 4, RepsMax: 10, SetsMin: 4, SetsMax: 6, RestMin: 150, RestMax: 240, RIRTarget: 2},
			types.SessionHypertrophy: {RepsFractionLow: 0.60, RepsFractionHigh: 0.80, RepsMin: 8, RepsMax: 15, SetsMin: 3, SetsMax: 5, RestMin: 90, RestMax: 150, RIRTarget: 2},
			types.SessionEndurance:   {RepsFractionLow: 0.40, RepsFractionHigh: 0.60, RepsMin: 4, RepsMax: 12, SetsMin: 5, SetsMax: 10, RestMin: 60, RestMax: 90, RIRTarget: 3},
			types.SessionTechnique:   {RepsFractionLow: 0.20, RepsFractionHigh: 0.40, RepsMin: 3, RepsMax: 6, SetsMin: 3, SetsMax: 6, RestMin: 60, RestMax: 120, RIRTarget: 4},
			types.SessionTest:        {RepsFractionLow: 1.0, RepsFractionHigh: 1.0, RepsMin: 1, RepsMax: 100, SetsMin: 1, SetsMax: 1, RestMin: 180, RestMax: 300, RIRTarget: 0},
		},
		Target:                    Target{Metric: TargetMaxReps, Value: 40},
		Weight:                    Weight{ThresholdTM: 12, KgPerRep: 0.5, IncrementKg: 1.25, MaxKg: 30},
		EnduranceVolumeMultiplier: 3.0,
	}
}

func bss() Definition {
	return Definition{
		ID:                 BSS,
		Name:               "Bulgarian split squat",
		BodyweightFraction: 0.71,
		Variants:           []string{"standard", "deficit", "front_foot_elevated"},
		VariantFactors: map[string]float64{
			"standard":            1.00,
			"deficit":             1.10,
			"front_foot_elevated": 1.10,
		},
		HypertrophyVariants: [2]string{"standard", "deficit"},
		Params: map[types.SessionType]SessionParams{
			types.SessionStrength:    {RepsFractionLow: 0.35, RepsFractionHigh: 0.55, RepsMin: 5, RepsMax: 10, SetsMin: 3, SetsMax: 5, RestMin: 120, RestMax: 180, RIRTarget: 2},
			types.SessionHypertrophy: {RepsFractionLow: 0.60, RepsFractionHigh: 0.80, RepsMin: 8, RepsMax: 15, SetsMin: 3, SetsMax: 4, RestMin: 90, RestMax: 120, RIRTarget: 2},
			types.SessionEndurance:   {RepsFractionLow: 0.40, RepsFractionHigh: 0.60, RepsMin: 5, RepsMax: 15, SetsMin: 4, SetsMax: 8, RestMin: 60, RestMax: 90, RIRTarget: 3},
			types.SessionTechnique:   {RepsFractionLow: 0.20, RepsFractionHigh: 0.40, RepsMin: 3, RepsMax: 8, SetsMin: 2, SetsMax: 4, RestMin: 60, RestMax: 90, RIRTarget: 4},
			types.SessionTest:        {RepsFractionLow: 1.0, RepsFractionHigh: 1.0, RepsMin: 1, RepsMax: 100, SetsMin: 1, SetsMax: 1, RestMin: 180, RestMax: 300, RIRTarget: 0},
		},
		Target:                    Target{Metric: TargetMaxReps, Value: 25},
		Weight:                    Weight{ThresholdTM: 15, KgPerRep: 1.0, IncrementKg: 2.5, MaxKg: 40},
		EnduranceVolumeMultiplier: 2.5,
	}
}
