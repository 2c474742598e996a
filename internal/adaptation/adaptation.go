// Package adaptation holds the explainable rules that turn reconstructed state
// into training decisions: plateau detection, deload triggers, weekly volume
// adjustment and per-session autoregulation.
package adaptation

import (
	"math"

	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/metrics"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/physiology"
	"github.com/hyperengineering/ascent/internal/types"
)

// Reason names one deload trigger.
type Reason string

const (
	ReasonPlateauFatigue   Reason = "plateau_with_low_readiness"
	ReasonUnderperformance Reason = "underperformance"
	ReasonLowCompliance    Reason = "low_compliance"
)

// DetectPlateau reports a stalled test trend: the slope over the plateau
// window is below threshold and no test in that window matched the all-time
// best. At least two tests are required.
func DetectPlateau(history []types.Session, asOf types.Date, p model.Params) bool {
	a := p.Adaptation
	tests, allTime, recent := 0, 0, 0
	for _, s := range history {
		if s.SessionType != types.SessionTest || s.Date.After(asOf) {
			continue
		}
		m := metrics.TestMax(s)
		if m <= 0 {
			continue
		}
		tests++
		allTime = max(allTime, m)
		if metrics.InWindow(s.Date, asOf, a.PlateauWindowDays) {
			recent = max(recent, m)
		}
	}
	if tests < 2 {
		return false
	}
	slope := metrics.TrendSlope(history, asOf, a.PlateauWindowDays)
	return slope < a.PlateauSlope && recent < allTime
}

// SessionPerformance returns the best bodyweight-equivalent reps to failure of
// a session. Tests are performed to failure; otherwise unreported reserve is
// imputed from mHat the same way the training load is.
func SessionPerformance(s types.Session, def exercise.Definition, mHat float64, p model.Params) float64 {
	ref := metrics.ReferenceLoad(def, p.Metrics)
	best := 0.0
	for _, set := range s.CompletedSets {
		reps := set.Reps()
		if reps <= 0 {
			continue
		}
		rir := physiology.SetRIR(set, mHat, p.Physiology)
		if s.SessionType == types.SessionTest && set.RIRReported == nil {
			rir = 0
		}
		rtf := metrics.LoadNormalizedReps(float64(reps)+rir, metrics.SetLoad(set, s, def), ref, p.Metrics.BodyweightGamma)
		best = math.Max(best, rtf)
	}
	return best
}

// ShouldDeload evaluates every deload trigger and returns the ones that fired.
func ShouldDeload(history []types.Session, state types.FitnessFatigueState, asOf types.Date, def exercise.Definition, p model.Params) (bool, []Reason) {
	a := p.Adaptation
	z := physiology.ReadinessZ(state)
	var reasons []Reason

	if DetectPlateau(history, asOf, p) && z < a.FatigueZ {
		reasons = append(reasons, ReasonPlateauFatigue)
	}

	if underperforming(history, state, z, asOf, def, p) {
		reasons = append(reasons, ReasonUnderperformance)
	}

	if ratio, _ := metrics.WeeklyCompliance(history, asOf, p.Metrics.ComplianceWindowDays); ratio < a.ComplianceThreshold {
		reasons = append(reasons, ReasonLowCompliance)
	}

	return len(reasons) > 0, reasons
}

func underperforming(history []types.Session, state types.FitnessFatigueState, z float64, asOf types.Date, def exercise.Definition, p model.Params) bool {
	a := p.Adaptation
	predicted := state.MHat * (1 + a.ReadinessCorrection*z)
	threshold := predicted * (1 - a.UnderperformanceThreshold)

	seen := 0
	for i := len(history) - 1; i >= 0 && seen < a.UnderperformanceSessions; i-- {
		s := history[i]
		if s.Date.After(asOf) || !strengthType(s.SessionType) || len(s.CompletedSets) == 0 {
			continue
		}
		if SessionPerformance(s, def, state.MHat, p) >= threshold {
			return false
		}
		seen++
	}
	return seen == a.UnderperformanceSessions
}

func strengthType(t types.SessionType) bool {
	switch t {
	case types.SessionStrength, types.SessionTest:
		return true
	case types.SessionHypertrophy, types.SessionEndurance, types.SessionTechnique:
		return false
	default:
		return false
	}
}

// VolumeAdjustment decides next week's hard-set target from this week's.
func VolumeAdjustment(weeklySets int, deload bool, z, compliance float64, p model.AdaptationParams) types.VolumeAdjustment {
	adj := types.VolumeAdjustment{Action: types.VolumeHold, Factor: 1, CurrentSets: weeklySets, TargetSets: weeklySets}
	cur := float64(weeklySets)

	switch {
	case deload:
		adj.Action = types.VolumeDeload
		adj.Factor = p.DeloadFactor
		adj.TargetSets = max(p.DeloadMinSets, int(math.Round(cur*p.DeloadFactor)))
	case z < p.LowZ:
		adj.Action = types.VolumeReduce
		adj.Factor = p.ReduceFactor
		target := int(math.Round(cur * p.ReduceFactor))
		if weeklySets > 0 && target >= weeklySets {
			target = weeklySets - 1
		}
		adj.TargetSets = target
	case z > p.HighZ && compliance >= p.IncreaseCompliance:
		adj.Action = types.VolumeIncrease
		adj.Factor = p.IncreaseFactor
		// small weeks still gain a set
		target := max(weeklySets+1, int(math.Round(cur*p.IncreaseFactor)))
		adj.TargetSets = min(p.MaxWeeklySets, target)
	}
	return adj
}

// Autoregulate adjusts one prescription by readiness. Low readiness drops a
// set, never below the minimum; high readiness adds a rep to each set.
func Autoregulate(sets, reps int, z float64, p model.AdaptationParams) (int, int, types.Autoregulation) {
	switch {
	case z < p.AutoregLowZ:
		if sets > p.AutoregMinSets {
			return sets - 1, reps, types.AutoregReducedSets
		}
	case z > p.AutoregHighZ:
		return sets, reps + 1, types.AutoregAddedReps
	}
	return sets, reps, types.AutoregNone
}
