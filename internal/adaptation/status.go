package adaptation

import (
	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/metrics"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/physiology"
	"github.com/hyperengineering/ascent/internal/types"
)

// ForExercise returns the sessions of one exercise dated on or before asOf.
// A zero asOf keeps every session.
func ForExercise(history []types.Session, exerciseID string, asOf types.Date) []types.Session {
	out := make([]types.Session, 0, len(history))
	for _, s := range history {
		if s.ExerciseID != exerciseID {
			continue
		}
		if !asOf.IsZero() && s.Date.After(asOf) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// InitialState builds the pre-history state from the athlete's baseline.
func InitialState(profile types.Profile, exerciseID string, p model.PhysiologyParams) types.FitnessFatigueState {
	if b, ok := profile.Baseline(exerciseID); ok {
		v := float64(b)
		return physiology.Initial(&v, p)
	}
	return physiology.Initial(nil, p)
}

// ReplayState reconstructs the state of one exercise and advances it to asOf.
func ReplayState(history []types.Session, def exercise.Definition, profile types.Profile, asOf types.Date, p model.Params) (types.FitnessFatigueState, error) {
	state, err := physiology.Replay(history, InitialState(profile, def.ID, p.Physiology), def, p)
	if err != nil {
		return state, err
	}
	if !asOf.IsZero() {
		state = physiology.Advance(state, asOf, p.Physiology)
	}
	return state, nil
}

// ReferenceBodyweight returns the bodyweight loads are normalised against:
// the profile's, else the most recent one logged. It is 0 when neither is known.
func ReferenceBodyweight(profile types.Profile, history []types.Session) float64 {
	if profile.BodyweightKg > 0 {
		return profile.BodyweightKg
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].BodyweightKg > 0 {
			return history[i].BodyweightKg
		}
	}
	return 0
}

// Assess builds the training status of one exercise as of a date. A zero
// asOf means the date of the last session.
func Assess(history []types.Session, def exercise.Definition, profile types.Profile, asOf types.Date, p model.Params) (types.TrainingStatus, error) {
	h := ForExercise(history, def.ID, asOf)
	if asOf.IsZero() && len(h) > 0 {
		asOf = h[len(h)-1].Date
	}
	p = p.WithReferenceBodyweight(ReferenceBodyweight(profile, h))

	var baseline *int
	if b, ok := profile.Baseline(def.ID); ok {
		baseline = &b
	}
	tm, err := metrics.TrainingMax(h, baseline, p.Metrics)
	if err != nil {
		return types.TrainingStatus{}, err
	}

	state, err := ReplayState(h, def, profile, asOf, p)
	if err != nil {
		return types.TrainingStatus{}, err
	}

	z := physiology.ReadinessZ(state)
	compliance, unplanned := metrics.WeeklyCompliance(h, asOf, p.Metrics.ComplianceWindowDays)
	deload, reasons := ShouldDeload(h, state, asOf, def, p)

	status := types.TrainingStatus{
		ExerciseID:        def.ID,
		AsOf:              asOf,
		TrainingMax:       tm,
		TrendSlope:        metrics.TrendSlope(h, asOf, p.Metrics.TrendWindowDays),
		IsPlateau:         DetectPlateau(h, asOf, p),
		DeloadRecommended: deload,
		ComplianceRatio:   compliance,
		UnplannedSessions: unplanned,
		FatigueScore:      physiology.FatigueScore(state),
		ReadinessZ:        z,
		Volume:            VolumeAdjustment(metrics.WeeklyHardSets(h, asOf), deload, z, compliance, p.Adaptation),
		State:             state,
	}
	if m, ok := metrics.LatestTestMax(h); ok {
		status.LatestTestMax = &m
	}
	for _, r := range reasons {
		status.DeloadReasons = append(status.DeloadReasons, string(r))
	}
	return status, nil
}
