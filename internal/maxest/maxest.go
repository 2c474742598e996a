// Package maxest estimates maximal rep capacity from a single multi-set
// session, without a dedicated test.
//
// Two estimates are produced. The fatigue-index estimate corrects the first
// set for incomplete recovery; the reps-in-reserve estimate maps reps to
// failure onto a percentage-of-capacity table. Both are returned and callers
// decide how to reconcile them.
package maxest

import (
	"math"
	"sort"

	"github.com/hyperengineering/ascent/internal/metrics"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/types"
)

// ErrInsufficientData indicates fewer than two usable sets.
var ErrInsufficientData = metrics.ErrInsufficientData

type point struct{ x, y float64 }

// recoveryTable maps rest seconds to the fraction of capacity recovered.
var recoveryTable = []point{
	{0, 0.50},
	{30, 0.50},
	{60, 0.75},
	{90, 0.85},
	{120, 0.90},
	{180, 0.95},
	{240, 0.98},
	{300, 1.00},
}

// percentTable maps reps to failure onto percent of maximal capacity.
var percentTable = []point{
	{1, 100},
	{2, 95},
	{3, 93},
	{4, 90},
	{5, 87},
	{6, 85},
	{7, 83},
	{8, 80},
	{9, 77},
	{10, 75},
	{12, 70},
	{15, 65},
	{20, 60},
	{25, 55},
	{30, 50},
}

// Recovery returns the fraction of capacity recovered after rest seconds,
// interpolated linearly and clamped to [minRecovery, 1].
func Recovery(restSeconds float64, minRecovery float64) float64 {
	v := interpolate(recoveryTable, restSeconds, false)
	return math.Max(minRecovery, math.Min(1, v))
}

// PercentOfMax returns the percent of capacity at which reps to failure is
// achievable. Values outside the table are extrapolated and floored.
func PercentOfMax(repsToFailure float64, floor float64) float64 {
	return math.Max(floor, interpolate(percentTable, repsToFailure, true))
}

// FatigueIndex is 1 − mean(later sets)/first set, clamped to [0, 1].
func FatigueIndex(reps []int) float64 {
	if len(reps) < 2 || reps[0] <= 0 {
		return 0
	}
	sum := 0
	for _, r := range reps[1:] {
		sum += r
	}
	mean := float64(sum) / float64(len(reps)-1)
	return clamp(1-mean/float64(reps[0]), 0, 1)
}

// Estimate computes both max estimates from the completed sets of one
// session, in the order performed.
func Estimate(sets []types.Set, p model.EstimatorParams) (types.MaxEstimate, error) {
	used := make([]types.Set, 0, len(sets))
	for _, s := range sets {
		if s.Reps() > 0 {
			used = append(used, s)
		}
	}
	if len(used) < 2 {
		return types.MaxEstimate{}, ErrInsufficientData
	}

	reps := make([]int, len(used))
	for i, s := range used {
		reps[i] = s.Reps()
	}
	first := float64(reps[0])
	fi := FatigueIndex(reps)

	fiEst := first / Recovery(float64(used[1].RestSecondsBefore), p.MinRecovery)
	if fi < p.LowFatigueFI {
		fiEst *= 1 + p.LowFatigueBoost*(p.LowFatigueFI-fi)
	}

	rir := clamp(p.RIRAtZeroFI*(1-fi/p.FIAtZeroRIR), 0, p.RIRAtZeroFI)
	if used[0].RIRReported != nil {
		rir = float64(*used[0].RIRReported)
	}
	rtf := first + rir
	nuzzo := rtf / (PercentOfMax(rtf, p.PercentFloor) / 100)

	return types.MaxEstimate{
		FIEst:       fiEst,
		NuzzoEst:    nuzzo,
		FIReps:      fi,
		InferredRIR: rir,
		Confidence:  confidence(used, p),
		SetsUsed:    len(used),
	}, nil
}

// IsPersonalBest reports whether both estimates exceed the current best.
func IsPersonalBest(est types.MaxEstimate, currentBest float64) bool {
	return math.Min(est.FIEst, est.NuzzoEst) > currentBest
}

func confidence(sets []types.Set, p model.EstimatorParams) types.Confidence {
	reported := false
	for _, s := range sets {
		if s.RIRReported != nil {
			reported = true
			break
		}
	}
	switch {
	case len(sets) >= p.HighConfidenceSets && reported:
		return types.ConfidenceHigh
	case len(sets) >= 2:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// interpolate evaluates a piecewise-linear table at x. Outside the table it
// either clamps to the end values or extends the end segments.
func interpolate(table []point, x float64, extrapolate bool) float64 {
	n := len(table)
	if x <= table[0].x {
		if !extrapolate {
			return table[0].y
		}
		return lerp(table[0], table[1], x)
	}
	if x >= table[n-1].x {
		if !extrapolate {
			return table[n-1].y
		}
		return lerp(table[n-2], table[n-1], x)
	}
	i := sort.Search(n, func(i int) bool { return table[i].x >= x })
	return lerp(table[i-1], table[i], x)
}

func lerp(a, b point, x float64) float64 {
	return a.y + (b.y-a.y)*(x-a.x)/(b.x-a.x)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
