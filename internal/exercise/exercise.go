// Package exercise defines the movements the planner knows how to program.
//
// A Definition carries everything the engine needs to normalise reps for one
// movement and to turn a training max into concrete prescriptions. The
// built-in catalog covers pull-ups, dips and Bulgarian split squats; a YAML
// catalog file can override or extend it.
package exercise

import (
	"errors"
	"fmt"
	"math"

	"github.com/hyperengineering/ascent/internal/types"
)

var (
	// ErrUnknownExercise indicates an exercise id missing from the catalog.
	ErrUnknownExercise = errors.New("unknown exercise")
	// ErrInvalidDefinition indicates a definition that failed validation.
	ErrInvalidDefinition = errors.New("invalid exercise definition")
)

// TargetMaxReps is the only goal metric currently supported.
const TargetMaxReps = "max_reps"

// SessionParams bounds the prescription of one session type.
type SessionParams struct {
	RepsFractionLow  float64 `yaml:"reps_fraction_low" json:"reps_fraction_low" validate:"gte=0,lte=1.5"`
	RepsFractionHigh float64 `yaml:"reps_fraction_high" json:"reps_fraction_high" validate:"gtefield=RepsFractionLow,lte=1.5"`
	RepsMin          int     `yaml:"reps_min" json:"reps_min" validate:"gte=1"`
	RepsMax          int     `yaml:"reps_max" json:"reps_max" validate:"gtefield=RepsMin"`
	SetsMin          int     `yaml:"sets_min" json:"sets_min" validate:"gte=1"`
	SetsMax          int     `yaml:"sets_max" json:"sets_max" validate:"gtefield=SetsMin,lte=20"`
	RestMin          int     `yaml:"rest_min" json:"rest_min" validate:"gte=0"`
	RestMax          int     `yaml:"rest_max" json:"rest_max" validate:"gtefield=RestMin,lte=900"`
	RIRTarget        int     `yaml:"rir_target" json:"rir_target" validate:"gte=0,lte=5"`
}

// Target is the athlete-independent goal for an exercise.
type Target struct {
	Metric string `yaml:"metric" json:"metric" validate:"required,oneof=max_reps"`
	Value  int    `yaml:"value" json:"value" validate:"gte=1"`
}

// Weight describes when and how strength sessions add external load.
type Weight struct {
	ThresholdTM int     `yaml:"threshold_tm" json:"threshold_tm" validate:"gte=0"`
	KgPerRep    float64 `yaml:"kg_per_rep" json:"kg_per_rep" validate:"gte=0"`
	IncrementKg float64 `yaml:"increment_kg" json:"increment_kg" validate:"gte=0"`
	MaxKg       float64 `yaml:"max_kg" json:"max_kg" validate:"gte=0"`
}

// Definition is one exercise in the catalog.
type Definition struct {
	ID                        string                              `yaml:"id" json:"id" validate:"required,max=64"`
	Name                      string                              `yaml:"name" json:"name" validate:"required"`
	BodyweightFraction        float64                             `yaml:"bw_fraction" json:"bw_fraction" validate:"gt=0,lte=1"`
	Variants                  []string                            `yaml:"variants" json:"variants" validate:"required,min=1,unique,dive,required"`
	VariantFactors            map[string]float64                  `yaml:"variant_factors" json:"variant_factors" validate:"dive,gt=0"`
	HypertrophyVariants       [2]string                           `yaml:"hypertrophy_variants" json:"hypertrophy_variants" validate:"dive,required"`
	Params                    map[types.SessionType]SessionParams `yaml:"params" json:"params" validate:"required,dive"`
	Target                    Target                              `yaml:"target" json:"target"`
	Weight                    Weight                              `yaml:"weight" json:"weight"`
	EnduranceVolumeMultiplier float64                             `yaml:"endurance_volume_multiplier" json:"endurance_volume_multiplier" validate:"gte=1"`
}

// PrimaryVariant returns the first listed variant.
func (d Definition) PrimaryVariant() string {
	if len(d.Variants) == 0 {
		return ""
	}
	return d.Variants[0]
}

// HasVariant reports whether v is one of the exercise's variants.
func (d Definition) HasVariant(v string) bool {
	for _, known := range d.Variants {
		if known == v {
			return true
		}
	}
	return false
}

// VariantFactor returns the difficulty multiplier of a variant. Unknown or
// unlisted variants count as 1.0.
func (d Definition) VariantFactor(v string) float64 {
	if f, ok := d.VariantFactors[v]; ok && f > 0 {
		return f
	}
	return 1.0
}

// SessionParams returns the prescription bounds of a session type.
func (d Definition) SessionParams(t types.SessionType) (SessionParams, error) {
	switch t {
	case types.SessionStrength, types.SessionHypertrophy, types.SessionEndurance,
		types.SessionTechnique, types.SessionTest:
		sp, ok := d.Params[t]
		if !ok {
			return SessionParams{}, fmt.Errorf("%w: %s has no %s parameters", ErrInvalidDefinition, d.ID, t)
		}
		return sp, nil
	default:
		return SessionParams{}, fmt.Errorf("%w: session type %q", types.ErrUnknownEnum, t)
	}
}

// AddedWeight returns the external load for a strength session at training
// max tm, rounded down to the loading increment and capped at MaxKg.
func (d Definition) AddedWeight(tm int) float64 {
	w := d.Weight
	if w.KgPerRep <= 0 || tm <= w.ThresholdTM {
		return 0
	}
	kg := float64(tm-w.ThresholdTM) * w.KgPerRep
	if w.IncrementKg > 0 {
		kg = math.Floor(kg/w.IncrementKg) * w.IncrementKg
	}
	if w.MaxKg > 0 && kg > w.MaxKg {
		kg = w.MaxKg
	}
	return kg
}
