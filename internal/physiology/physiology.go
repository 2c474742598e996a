// Package physiology reconstructs fitness, fatigue and estimated max capacity
// from a training history using a two-compartment impulse-response model.
//
// The state is never stored. Replay folds the history from an initial state
// and callers rebuild it on every invocation.
package physiology

import (
	"errors"
	"math"

	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/metrics"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/types"
)

// ErrUnsortedHistory indicates a history that is not in chronological order.
var ErrUnsortedHistory = errors.New("history is not in chronological order")

// referenceRIR is the reps-in-reserve at which effort is 1.
const referenceRIR = 3

// Effort weights reps by proximity to failure. It is 1 at three reps in
// reserve and rises as reserve shrinks.
func Effort(rir, slope float64) float64 {
	return clamp(1+slope*(referenceRIR-rir), 0.5, 1+referenceRIR*slope)
}

// LoadStress scales a set by its effective load relative to the reference
// load. A non-positive reference counts as 1.
func LoadStress(effectiveLoad, referenceLoad, gamma float64) float64 {
	if referenceLoad <= 0 || effectiveLoad <= 0 {
		return 1
	}
	return math.Pow(effectiveLoad/referenceLoad, gamma)
}

// SetRIR returns the reported reps-in-reserve of a set, or an estimate from
// the current max when none was reported.
func SetRIR(set types.Set, mHat float64, p model.PhysiologyParams) float64 {
	if set.RIRReported != nil {
		return float64(*set.RIRReported)
	}
	return clamp(mHat-float64(set.Reps()), 0, p.MaxImputedRIR)
}

// HardReps returns the effort-weighted reps of one completed set.
func HardReps(set types.Set, mHat float64, p model.PhysiologyParams) float64 {
	return float64(set.Reps()) * Effort(SetRIR(set, mHat, p), p.EffortSlope)
}

// SessionLoad sums the training impulse of a session's completed sets. Load
// stress is measured against the reference bodyweight in p.Metrics.
func SessionLoad(s types.Session, def exercise.Definition, state types.FitnessFatigueState, p model.Params) float64 {
	ref := metrics.ReferenceLoad(def, p.Metrics)
	variant := def.VariantFactor(s.Variant)
	total := 0.0
	for _, set := range s.CompletedSets {
		if set.Reps() <= 0 {
			continue
		}
		stress := LoadStress(metrics.SetLoad(set, s, def), ref, p.Physiology.LoadGamma)
		total += HardReps(set, state.MHat, p.Physiology) * stress * variant
	}
	return total
}

// Initial returns the state before any history. A nil baseline starts the
// max estimate at the configured default.
func Initial(baseline *float64, p model.PhysiologyParams) types.FitnessFatigueState {
	m := p.DefaultMax
	if baseline != nil && *baseline > 0 {
		m = *baseline
	}
	return types.FitnessFatigueState{
		MHat:         m,
		SigmaM:       math.Sqrt(p.InitialMaxVariance),
		ReadinessVar: p.InitialReadinessVar,
	}
}

// Advance decays both traces to date and folds the decayed readiness into the
// running statistics. Dates at or before the state's date leave it unchanged.
func Advance(state types.FitnessFatigueState, date types.Date, p model.PhysiologyParams) types.FitnessFatigueState {
	if state.AsOf.IsZero() {
		state.AsOf = date
		return state
	}
	days := date.DaysSince(state.AsOf)
	if days <= 0 {
		return state
	}
	state.Fitness *= math.Exp(-float64(days) / p.FitnessTau)
	state.Fatigue *= math.Exp(-float64(days) / p.FatigueTau)
	state.AsOf = date
	return updateReadiness(state, p)
}

// Apply advances the state to the session date and adds its impulse. A TEST
// session also updates the max estimate and its uncertainty.
func Apply(state types.FitnessFatigueState, s types.Session, def exercise.Definition, p model.Params) types.FitnessFatigueState {
	ph := p.Physiology
	state = Advance(state, s.Date, ph)

	w := SessionLoad(s, def, state, p)
	state.Fitness += ph.FitnessGain * w
	state.Fatigue += ph.FatigueGain * w
	state = updateReadiness(state, ph)

	if s.SessionType == types.SessionTest {
		if obs := metrics.TestMax(s); obs > 0 {
			state = observeMax(state, float64(obs), ph)
		}
	}
	return state
}

// Replay folds history into a state starting from init. Sessions for other
// exercises are skipped; history must be sorted.
func Replay(history []types.Session, init types.FitnessFatigueState, def exercise.Definition, p model.Params) (types.FitnessFatigueState, error) {
	if !types.IsSorted(history) {
		return init, ErrUnsortedHistory
	}
	state := init
	for _, s := range history {
		if s.ExerciseID != def.ID {
			continue
		}
		state = Apply(state, s, def, p)
	}
	return state, nil
}

// ReadinessZ standardises current readiness against its running statistics.
func ReadinessZ(state types.FitnessFatigueState) float64 {
	if state.ReadinessVar <= 0 {
		return 0
	}
	return (state.Readiness() - state.ReadinessMean) / math.Sqrt(state.ReadinessVar)
}

// FatigueScore is the fatigue share of the two traces, in [0, 1].
func FatigueScore(state types.FitnessFatigueState) float64 {
	total := state.Fitness + state.Fatigue
	if total <= 0 {
		return 0
	}
	return state.Fatigue / total
}

func updateReadiness(state types.FitnessFatigueState, p model.PhysiologyParams) types.FitnessFatigueState {
	a := p.ReadinessAlpha
	diff := state.Readiness() - state.ReadinessMean
	state.ReadinessMean += a * diff
	state.ReadinessVar = (1 - a) * (state.ReadinessVar + a*diff*diff)
	return state
}

func observeMax(state types.FitnessFatigueState, obs float64, p model.PhysiologyParams) types.FitnessFatigueState {
	prev := state.MHat
	state.MHat = (1-p.MaxAlpha)*prev + p.MaxAlpha*obs
	variance := state.SigmaM * state.SigmaM
	variance = (1-p.MaxVarianceBeta)*variance + p.MaxVarianceBeta*(obs-prev)*(obs-prev)
	state.SigmaM = math.Sqrt(math.Max(variance, p.MaxVarianceFloor))
	return state
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
