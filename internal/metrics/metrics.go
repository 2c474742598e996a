// Package metrics computes the derived quantities the rest of the engine
// builds on: rest and load normalisation, training max, trend slope,
// compliance and strength estimates.
//
// Every function is pure. History arguments hold the sessions of a single
// exercise in chronological order.
package metrics

import (
	"errors"
	"math"

	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/types"
)

// ErrInsufficientData indicates neither history nor a baseline is available.
var ErrInsufficientData = errors.New("insufficient data")

// weekDays is the span of a training week.
const weekDays = 7

// RestFactor returns the multiplicative penalty of short inter-set rest.
// Values are clamped to [RestFactorMin, RestFactorMax]; non-positive rest maps
// to the minimum.
func RestFactor(restSeconds float64, p model.MetricsParams) float64 {
	if restSeconds <= 0 {
		return p.RestFactorMin
	}
	f := math.Pow(restSeconds/p.RestRefSeconds, p.RestGamma)
	return clamp(f, p.RestFactorMin, p.RestFactorMax)
}

// EffectiveReps scales reps to what they would have been at reference rest.
func EffectiveReps(reps float64, restSeconds float64, p model.MetricsParams) float64 {
	return reps / RestFactor(restSeconds, p)
}

// EffectiveLoad returns the load actually moved: the bodyweight share plus
// added weight minus assistance, never negative.
func EffectiveLoad(bodyweightKg, bodyweightFraction, addedKg, assistanceKg float64) float64 {
	return math.Max(0, bodyweightKg*bodyweightFraction+addedKg-assistanceKg)
}

// LoadNormalizedReps expresses reps at a reference load. A non-positive
// reference or load leaves reps unchanged.
func LoadNormalizedReps(reps, effectiveLoad, referenceLoad, gamma float64) float64 {
	if referenceLoad <= 0 || effectiveLoad <= 0 {
		return reps
	}
	return reps * math.Pow(effectiveLoad/referenceLoad, gamma)
}

// VariantNormalizedReps scales reps by the variant's difficulty factor.
func VariantNormalizedReps(reps float64, def exercise.Definition, variant string) float64 {
	return reps * def.VariantFactor(variant)
}

// ReferenceLoad is the bodyweight share of the reference bodyweight, the load
// at which normalised reps are expressed. It is 0 when no reference
// bodyweight is set, which leaves reps unmodified.
func ReferenceLoad(def exercise.Definition, p model.MetricsParams) float64 {
	return p.ReferenceBodyweightKg * def.BodyweightFraction
}

// SetLoad returns the effective load of one set within a session.
func SetLoad(set types.Set, s types.Session, def exercise.Definition) float64 {
	return EffectiveLoad(s.BodyweightKg, def.BodyweightFraction, set.AddedWeightKg, s.AssistanceKg())
}

// NormalizedSetReps applies rest, load and variant normalisation to the reps
// of one completed set.
func NormalizedSetReps(reps float64, set types.Set, s types.Session, def exercise.Definition, p model.MetricsParams) float64 {
	r := EffectiveReps(reps, float64(set.RestSecondsBefore), p)
	r = LoadNormalizedReps(r, SetLoad(set, s, def), ReferenceLoad(def, p), p.BodyweightGamma)
	return VariantNormalizedReps(r, def, s.Variant)
}

// TestMax returns the best actual reps among the completed sets of a session.
func TestMax(s types.Session) int {
	best := 0
	for _, set := range s.CompletedSets {
		if r := set.Reps(); r > best {
			best = r
		}
	}
	return best
}

// LatestTestMax returns the max of the most recent TEST session with a
// positive result.
func LatestTestMax(history []types.Session) (int, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		s := history[i]
		if s.SessionType != types.SessionTest {
			continue
		}
		if m := TestMax(s); m > 0 {
			return m, true
		}
	}
	return 0, false
}

// BestTestMax returns the all-time best TEST result.
func BestTestMax(history []types.Session) int {
	best := 0
	for _, s := range history {
		if s.SessionType == types.SessionTest {
			if m := TestMax(s); m > best {
				best = m
			}
		}
	}
	return best
}

// TrainingMax returns floor(factor × latest TEST max), at least 1. Without a
// TEST the same floor applies to the baseline.
func TrainingMax(history []types.Session, baseline *int, p model.MetricsParams) (int, error) {
	if m, ok := LatestTestMax(history); ok {
		return scaledMax(m, p), nil
	}
	if baseline != nil && *baseline > 0 {
		return scaledMax(*baseline, p), nil
	}
	return 0, ErrInsufficientData
}

func scaledMax(m int, p model.MetricsParams) int {
	return max(1, int(math.Floor(p.TrainingMaxFactor*float64(m))))
}

// InWindow reports whether date lies in the windowDays days ending at asOf,
// asOf included.
func InWindow(date, asOf types.Date, windowDays int) bool {
	age := asOf.DaysSince(date)
	return age >= 0 && age < windowDays
}

// TrendSlope fits TEST maxes in the trailing window against day index by
// ordinary least squares and returns the slope in reps per week. Fewer than
// two points or zero spread in dates yield 0.
func TrendSlope(history []types.Session, asOf types.Date, windowDays int) float64 {
	var xs, ys []float64
	var origin types.Date
	for _, s := range history {
		if s.SessionType != types.SessionTest || !InWindow(s.Date, asOf, windowDays) {
			continue
		}
		m := TestMax(s)
		if m <= 0 {
			continue
		}
		if len(xs) == 0 {
			origin = s.Date
		}
		xs = append(xs, float64(s.Date.DaysSince(origin)))
		ys = append(ys, float64(m))
	}
	if len(xs) < 2 {
		return 0
	}

	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0
	}
	return sxy / sxx * weekDays
}

// SessionCompliance returns completed reps over planned reps. A session with
// nothing planned is full compliance, or unbounded when reps were performed
// anyway.
func SessionCompliance(s types.Session) types.Compliance {
	planned := s.PlannedReps()
	if planned <= 0 {
		if s.CompletedReps() > 0 {
			return types.Compliance{Kind: types.ComplianceUnbounded}
		}
		return types.Compliance{Kind: types.ComplianceBounded, Ratio: 1}
	}
	return types.Compliance{
		Kind:  types.ComplianceBounded,
		Ratio: float64(s.CompletedReps()) / float64(planned),
	}
}

// WeeklyCompliance averages bounded compliance over the trailing window and
// counts unplanned sessions separately. With no bounded session the ratio is 1.
func WeeklyCompliance(history []types.Session, asOf types.Date, windowDays int) (ratio float64, unplanned int) {
	var sum float64
	bounded := 0
	for _, s := range history {
		if !InWindow(s.Date, asOf, windowDays) {
			continue
		}
		c := SessionCompliance(s)
		switch c.Kind {
		case types.ComplianceBounded:
			sum += c.Ratio
			bounded++
		case types.ComplianceUnbounded:
			unplanned++
		}
	}
	if bounded == 0 {
		return 1.0, unplanned
	}
	return sum / float64(bounded), unplanned
}

// OneRepMax is the Epley estimate: load × (1 + reps/30).
func OneRepMax(loadKg float64, reps int) float64 {
	if loadKg <= 0 || reps <= 0 {
		return 0
	}
	return loadKg * (1 + float64(reps)/30)
}

// BestOneRepMax returns the best Epley estimate across completed sets in the
// trailing window, using the effective load of each set.
func BestOneRepMax(history []types.Session, def exercise.Definition, asOf types.Date, windowDays int) float64 {
	best := 0.0
	for _, s := range history {
		if !InWindow(s.Date, asOf, windowDays) {
			continue
		}
		for _, set := range s.CompletedSets {
			if e := OneRepMax(SetLoad(set, s, def), set.Reps()); e > best {
				best = e
			}
		}
	}
	return best
}

// WeeklyHardSets counts completed sets with at least one rep in the trailing
// week.
func WeeklyHardSets(history []types.Session, asOf types.Date) int {
	n := 0
	for _, s := range history {
		if !InWindow(s.Date, asOf, weekDays) {
			continue
		}
		for _, set := range s.CompletedSets {
			if set.Reps() > 0 {
				n++
			}
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
