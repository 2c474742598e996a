// Package model holds the tunable constants of the training engine.
//
// Params is a plain value: it is built once (defaults, then config overrides)
// and passed explicitly to every engine function. Nothing in the engine reads
// package-level mutable state.
package model

import (
	"errors"
	"fmt"

	"github.com/hyperengineering/ascent/internal/types"
)

// ErrInvalidParams indicates a parameter outside its meaningful range.
var ErrInvalidParams = errors.New("invalid model parameters")

// Params groups every tunable of the engine.
type Params struct {
	Metrics    MetricsParams    `yaml:"metrics"`
	Physiology PhysiologyParams `yaml:"physiology"`
	Estimator  EstimatorParams  `yaml:"estimator"`
	Adaptation AdaptationParams `yaml:"adaptation"`
	Planner    PlannerParams    `yaml:"planner"`
}

// MetricsParams controls rep normalisation and trailing windows.
type MetricsParams struct {
	RestRefSeconds  float64 `yaml:"rest_ref_seconds"`
	RestGamma       float64 `yaml:"rest_gamma"`
	RestFactorMin   float64 `yaml:"rest_factor_min"`
	RestFactorMax   float64 `yaml:"rest_factor_max"`
	BodyweightGamma float64 `yaml:"bodyweight_gamma"`
	// ReferenceBodyweightKg anchors load normalisation. Zero means the
	// athlete's profile bodyweight; with neither, reps are not load-scaled.
	ReferenceBodyweightKg float64 `yaml:"reference_bodyweight_kg"`
	TrainingMaxFactor     float64 `yaml:"training_max_factor"`
	TrendWindowDays       int     `yaml:"trend_window_days"`
	ComplianceWindowDays  int     `yaml:"compliance_window_days"`
}

// PhysiologyParams controls the fitness-fatigue impulse response.
type PhysiologyParams struct {
	EffortSlope         float64 `yaml:"effort_slope"`
	LoadGamma           float64 `yaml:"load_gamma"`
	FitnessTau          float64 `yaml:"fitness_tau_days"`
	FatigueTau          float64 `yaml:"fatigue_tau_days"`
	FitnessGain         float64 `yaml:"fitness_gain"`
	FatigueGain         float64 `yaml:"fatigue_gain"`
	ReadinessAlpha      float64 `yaml:"readiness_alpha"`
	MaxAlpha            float64 `yaml:"max_alpha"`
	MaxVarianceBeta     float64 `yaml:"max_variance_beta"`
	MaxVarianceFloor    float64 `yaml:"max_variance_floor"`
	DefaultMax          float64 `yaml:"default_max"`
	InitialMaxVariance  float64 `yaml:"initial_max_variance"`
	InitialReadinessVar float64 `yaml:"initial_readiness_var"`
	MaxImputedRIR       float64 `yaml:"max_imputed_rir"`
}

// EstimatorParams controls the single-session max estimator.
type EstimatorParams struct {
	LowFatigueFI       float64 `yaml:"low_fatigue_fi"`
	LowFatigueBoost    float64 `yaml:"low_fatigue_boost"`
	RIRAtZeroFI        float64 `yaml:"rir_at_zero_fi"`
	FIAtZeroRIR        float64 `yaml:"fi_at_zero_rir"`
	MinRecovery        float64 `yaml:"min_recovery"`
	PercentFloor       float64 `yaml:"percent_floor"`
	HighConfidenceSets int     `yaml:"high_confidence_sets"`
}

// AdaptationParams controls plateau, deload and volume rules.
type AdaptationParams struct {
	PlateauSlope              float64 `yaml:"plateau_slope"`
	PlateauWindowDays         int     `yaml:"plateau_window_days"`
	FatigueZ                  float64 `yaml:"fatigue_z"`
	UnderperformanceSessions  int     `yaml:"underperformance_sessions"`
	UnderperformanceThreshold float64 `yaml:"underperformance_threshold"`
	ReadinessCorrection       float64 `yaml:"readiness_correction"`
	ComplianceThreshold       float64 `yaml:"compliance_threshold"`
	DeloadFactor              float64 `yaml:"deload_factor"`
	DeloadMinSets             int     `yaml:"deload_min_sets"`
	ReduceFactor              float64 `yaml:"reduce_factor"`
	IncreaseFactor            float64 `yaml:"increase_factor"`
	MaxWeeklySets             int     `yaml:"max_weekly_sets"`
	IncreaseCompliance        float64 `yaml:"increase_compliance"`
	LowZ                      float64 `yaml:"low_z"`
	HighZ                     float64 `yaml:"high_z"`
	AutoregLowZ               float64 `yaml:"autoreg_low_z"`
	AutoregHighZ              float64 `yaml:"autoreg_high_z"`
	AutoregMinSets            int     `yaml:"autoreg_min_sets"`
}

// PlannerParams controls progression and scheduling.
type PlannerParams struct {
	ProgressionRate float64                   `yaml:"progression_rate"`
	MinWeeklyGain   float64                   `yaml:"min_weekly_gain"`
	TestEveryWeeks  int                       `yaml:"test_every_weeks"`
	DefaultWeeks    int                       `yaml:"default_weeks"`
	MaxWeeks        int                       `yaml:"max_weeks"`
	MinGapDays      map[types.SessionType]int `yaml:"min_gap_days"`
}

// Default returns the reference parameter set.
func Default() Params {
	return Params{
		Metrics: MetricsParams{
			RestRefSeconds:       180,
			RestGamma:            0.20,
			RestFactorMin:        0.80,
			RestFactorMax:        1.05,
			BodyweightGamma:      1.0,
			TrainingMaxFactor:    0.9,
			TrendWindowDays:      21,
			ComplianceWindowDays: 7,
		},
		Physiology: PhysiologyParams{
			EffortSlope:         0.15,
			LoadGamma:           1.5,
			FitnessTau:          42,
			FatigueTau:          7,
			FitnessGain:         1.0,
			FatigueGain:         1.5,
			ReadinessAlpha:      0.1,
			MaxAlpha:            0.35,
			MaxVarianceBeta:     0.25,
			MaxVarianceFloor:    0.01,
			DefaultMax:          10,
			InitialMaxVariance:  4,
			InitialReadinessVar: 25,
			MaxImputedRIR:       5,
		},
		Estimator: EstimatorParams{
			LowFatigueFI:       0.15,
			LowFatigueBoost:    0.5,
			RIRAtZeroFI:        5,
			FIAtZeroRIR:        0.5,
			MinRecovery:        0.5,
			PercentFloor:       40,
			HighConfidenceSets: 4,
		},
		Adaptation: AdaptationParams{
			PlateauSlope:              0.05,
			PlateauWindowDays:         21,
			FatigueZ:                  -1.0,
			UnderperformanceSessions:  2,
			UnderperformanceThreshold: 0.10,
			ReadinessCorrection:       0.02,
			ComplianceThreshold:       0.70,
			DeloadFactor:              0.6,
			DeloadMinSets:             6,
			ReduceFactor:              0.85,
			IncreaseFactor:            1.10,
			MaxWeeklySets:             30,
			IncreaseCompliance:        0.9,
			LowZ:                      -0.5,
			HighZ:                     0.5,
			AutoregLowZ:               -0.5,
			AutoregHighZ:              1.0,
			AutoregMinSets:            3,
		},
		Planner: PlannerParams{
			ProgressionRate: 1.0,
			MinWeeklyGain:   0.25,
			TestEveryWeeks:  4,
			DefaultWeeks:    8,
			MaxWeeks:        52,
			MinGapDays: map[types.SessionType]int{
				types.SessionStrength:    2,
				types.SessionHypertrophy: 1,
				types.SessionEndurance:   1,
				types.SessionTechnique:   1,
				types.SessionTest:        2,
			},
		},
	}
}

// Validate checks that every parameter is usable.
func (p Params) Validate() error {
	m := p.Metrics
	switch {
	case m.RestRefSeconds <= 0:
		return fmt.Errorf("%w: metrics.rest_ref_seconds must be positive", ErrInvalidParams)
	case m.RestFactorMin <= 0 || m.RestFactorMin > m.RestFactorMax:
		return fmt.Errorf("%w: metrics.rest_factor_min must be in (0, rest_factor_max]", ErrInvalidParams)
	case m.TrainingMaxFactor <= 0 || m.TrainingMaxFactor > 1:
		return fmt.Errorf("%w: metrics.training_max_factor must be in (0, 1]", ErrInvalidParams)
	case m.ReferenceBodyweightKg < 0:
		return fmt.Errorf("%w: metrics.reference_bodyweight_kg must not be negative", ErrInvalidParams)
	case m.TrendWindowDays <= 0 || m.ComplianceWindowDays <= 0:
		return fmt.Errorf("%w: metrics windows must be positive", ErrInvalidParams)
	}

	ph := p.Physiology
	switch {
	case ph.FitnessTau <= 0 || ph.FatigueTau <= 0:
		return fmt.Errorf("%w: physiology time constants must be positive", ErrInvalidParams)
	case ph.ReadinessAlpha <= 0 || ph.ReadinessAlpha > 1:
		return fmt.Errorf("%w: physiology.readiness_alpha must be in (0, 1]", ErrInvalidParams)
	case ph.MaxAlpha <= 0 || ph.MaxAlpha >= 1:
		return fmt.Errorf("%w: physiology.max_alpha must be in (0, 1)", ErrInvalidParams)
	case ph.MaxVarianceBeta <= 0 || ph.MaxVarianceBeta > 1:
		return fmt.Errorf("%w: physiology.max_variance_beta must be in (0, 1]", ErrInvalidParams)
	case ph.MaxVarianceFloor <= 0:
		return fmt.Errorf("%w: physiology.max_variance_floor must be positive", ErrInvalidParams)
	case ph.DefaultMax <= 0:
		return fmt.Errorf("%w: physiology.default_max must be positive", ErrInvalidParams)
	}

	e := p.Estimator
	switch {
	case e.MinRecovery <= 0 || e.MinRecovery > 1:
		return fmt.Errorf("%w: estimator.min_recovery must be in (0, 1]", ErrInvalidParams)
	case e.FIAtZeroRIR <= 0:
		return fmt.Errorf("%w: estimator.fi_at_zero_rir must be positive", ErrInvalidParams)
	case e.PercentFloor <= 0 || e.PercentFloor > 100:
		return fmt.Errorf("%w: estimator.percent_floor must be in (0, 100]", ErrInvalidParams)
	}

	a := p.Adaptation
	switch {
	case a.UnderperformanceSessions < 1:
		return fmt.Errorf("%w: adaptation.underperformance_sessions must be at least 1", ErrInvalidParams)
	case a.DeloadFactor <= 0 || a.DeloadFactor > 1:
		return fmt.Errorf("%w: adaptation.deload_factor must be in (0, 1]", ErrInvalidParams)
	case a.ReduceFactor <= 0 || a.ReduceFactor > 1:
		return fmt.Errorf("%w: adaptation.reduce_factor must be in (0, 1]", ErrInvalidParams)
	case a.IncreaseFactor < 1:
		return fmt.Errorf("%w: adaptation.increase_factor must be at least 1", ErrInvalidParams)
	case a.AutoregLowZ >= a.AutoregHighZ:
		return fmt.Errorf("%w: adaptation.autoreg_low_z must be below autoreg_high_z", ErrInvalidParams)
	case a.AutoregMinSets < 1:
		return fmt.Errorf("%w: adaptation.autoreg_min_sets must be at least 1", ErrInvalidParams)
	}

	pl := p.Planner
	switch {
	case pl.ProgressionRate <= 0:
		return fmt.Errorf("%w: planner.progression_rate must be positive", ErrInvalidParams)
	case pl.MinWeeklyGain <= 0:
		return fmt.Errorf("%w: planner.min_weekly_gain must be positive", ErrInvalidParams)
	case pl.MaxWeeks < 1 || pl.DefaultWeeks < 1 || pl.DefaultWeeks > pl.MaxWeeks:
		return fmt.Errorf("%w: planner week limits are inconsistent", ErrInvalidParams)
	case pl.TestEveryWeeks < 0:
		return fmt.Errorf("%w: planner.test_every_weeks must not be negative", ErrInvalidParams)
	}
	for k, v := range pl.MinGapDays {
		if !k.Valid() {
			return fmt.Errorf("%w: planner.min_gap_days has unknown session type %q", ErrInvalidParams, k)
		}
		if v < 0 {
			return fmt.Errorf("%w: planner.min_gap_days[%s] must not be negative", ErrInvalidParams, k)
		}
	}

	return nil
}

// MinGap returns the minimum number of days that must follow a session of the
// given type before the next session.
func (p PlannerParams) MinGap(sessionType types.SessionType) int {
	if v, ok := p.MinGapDays[sessionType]; ok {
		return v
	}
	return 1
}

// WithReferenceBodyweight returns a copy of p whose load normalisation is
// anchored at kg, unless a reference bodyweight is already configured.
func (p Params) WithReferenceBodyweight(kg float64) Params {
	if p.Metrics.ReferenceBodyweightKg == 0 && kg > 0 {
		p.Metrics.ReferenceBodyweightKg = kg
	}
	return p
}
