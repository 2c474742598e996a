// Package planner generates a deterministic multi-week schedule of concrete
// session prescriptions that converges on the athlete's goal.
//
// Generation starts from the state reconstructed from history, projects it
// forward one planned session at a time, and applies readiness-based
// autoregulation to each prescription. The same request always yields the
// same plan.
package planner

import (
	"errors"
	"fmt"
	"math"

	"github.com/hyperengineering/ascent/internal/adaptation"
	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/metrics"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/physiology"
	"github.com/hyperengineering/ascent/internal/types"
)

var (
	// ErrInsufficientData indicates neither history nor a baseline is available.
	ErrInsufficientData = metrics.ErrInsufficientData
	// ErrInvalidRequest indicates a request the planner cannot honour.
	ErrInvalidRequest = errors.New("invalid plan request")
)

// Request is the input to Generate.
type Request struct {
	History    []types.Session
	Definition exercise.Definition
	Profile    types.Profile
	Start      types.Date
	Weeks      int
	Params     model.Params
}

// Generate returns the prescriptions for req.Weeks weeks starting at req.Start.
// Only history dated before the start is considered.
func Generate(req Request) ([]types.SessionPlan, error) {
	def, p := req.Definition, req.Params
	if req.Start.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidRequest)
	}
	weeks := req.Weeks
	if weeks == 0 {
		weeks = p.Planner.DefaultWeeks
	}
	if weeks < 1 || weeks > p.Planner.MaxWeeks {
		return nil, fmt.Errorf("%w: weeks must be between 1 and %d", ErrInvalidRequest, p.Planner.MaxWeeks)
	}
	slots, err := template(req.Profile.DaysPerWeek)
	if err != nil {
		return nil, err
	}

	asOf := req.Start.AddDays(-1)
	history := adaptation.ForExercise(req.History, def.ID, asOf)
	bw := adaptation.ReferenceBodyweight(req.Profile, history)
	p = p.WithReferenceBodyweight(bw)

	startTM, err := startingMax(history, req.Profile, def.ID)
	if err != nil {
		return nil, err
	}
	status, err := adaptation.Assess(history, def, req.Profile, asOf, p)
	if err != nil {
		return nil, err
	}

	g := &generator{
		def:        def,
		params:     p,
		bodyweight: bw,
		state:      status.State,
		lastH:      lastVariant(history, types.SessionHypertrophy),
		target:     float64(goal(req.Profile, def)),
		tm:         float64(startTM),
	}
	if n := len(history); n > 0 {
		g.prevDate, g.prevType, g.hasPrev = history[n-1].Date, history[n-1].SessionType, true
	}

	plans := make([]types.SessionPlan, 0, weeks*len(slots))
	for w := 0; w < weeks; w++ {
		deload := w == 0 && status.DeloadRecommended
		weekPlans, err := g.week(req.Start.AddDays(7*w), w+1, slots, deload, status.Volume.Factor)
		if err != nil {
			return nil, err
		}
		plans = append(plans, weekPlans...)
	}
	return plans, nil
}

// slot is one template entry: a day offset within the week and a session type.
type slot struct {
	offset int
	typ    types.SessionType
}

// template returns the weekly layout for a training frequency. Offsets are
// relative to the week start, so a Monday start gives Mon/Wed/Fri.
func template(daysPerWeek int) ([]slot, error) {
	switch daysPerWeek {
	case 0, 3:
		return []slot{
			{0, types.SessionStrength},
			{2, types.SessionHypertrophy},
			{4, types.SessionEndurance},
		}, nil
	case 4:
		return []slot{
			{0, types.SessionStrength},
			{1, types.SessionHypertrophy},
			{3, types.SessionTechnique},
			{5, types.SessionEndurance},
		}, nil
	default:
		return nil, fmt.Errorf("%w: days per week must be 3 or 4, got %d", ErrInvalidRequest, daysPerWeek)
	}
}

func startingMax(history []types.Session, profile types.Profile, exerciseID string) (int, error) {
	if m, ok := metrics.LatestTestMax(history); ok {
		return m, nil
	}
	if b, ok := profile.Baseline(exerciseID); ok {
		return b, nil
	}
	return 0, ErrInsufficientData
}

func goal(profile types.Profile, def exercise.Definition) int {
	if t, ok := profile.Target(def.ID); ok {
		return t
	}
	return def.Target.Value
}

func lastVariant(history []types.Session, t types.SessionType) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].SessionType == t {
			return history[i].Variant
		}
	}
	return ""
}

// generator carries the running projection across weeks.
type generator struct {
	def        exercise.Definition
	params     model.Params
	bodyweight float64
	state      types.FitnessFatigueState
	lastH      string
	target     float64
	tm         float64

	prevDate types.Date
	prevType types.SessionType
	hasPrev  bool
}

func (g *generator) week(weekStart types.Date, number int, slots []slot, deload bool, deloadFactor float64) ([]types.SessionPlan, error) {
	pp := g.params.Planner
	n := len(slots)

	delta := 0.0
	if !deload && g.tm < g.target {
		delta = math.Max(pp.MinWeeklyGain, pp.ProgressionRate*(1-g.tm/g.target))
	}

	out := make([]types.SessionPlan, 0, n)
	for k, sl := range slots {
		typ := sl.typ
		if pp.TestEveryWeeks > 0 && number%pp.TestEveryWeeks == 0 && k == n-1 {
			typ = types.SessionTest
		}

		date := weekStart.AddDays(sl.offset)
		if g.hasPrev {
			if earliest := g.prevDate.AddDays(pp.MinGap(g.prevType)); date.Before(earliest) {
				date = earliest
			}
		}

		expected := int(math.Min(g.target, g.tm+delta*float64(k+1)/float64(n)))
		if expected < int(g.tm) {
			expected = int(g.tm)
		}

		plan, err := g.prescribe(date, typ, expected, number, deload, deloadFactor)
		if err != nil {
			return nil, err
		}
		out = append(out, plan)

		g.prevDate, g.prevType, g.hasPrev = date, typ, true
	}

	g.tm = math.Max(g.tm, math.Min(g.target, g.tm+delta))
	return out, nil
}

func (g *generator) prescribe(date types.Date, typ types.SessionType, tm, week int, deload bool, deloadFactor float64) (types.SessionPlan, error) {
	sp, err := g.def.SessionParams(typ)
	if err != nil {
		return types.SessionPlan{}, err
	}

	projected := physiology.Advance(g.state, date, g.params.Physiology)
	z := physiology.ReadinessZ(projected)

	plan := types.SessionPlan{
		Date:           date,
		ExerciseID:     g.def.ID,
		SessionType:    typ,
		Variant:        g.variant(typ),
		ExpectedTM:     tm,
		WeekNumber:     week,
		ReadinessZ:     z,
		Autoregulation: types.AutoregNone,
		Deload:         deload,
	}

	switch typ {
	case types.SessionTest:
		plan.Sets = []types.PlannedSet{{
			TargetReps:        max(1, tm),
			RestSecondsBefore: sp.RestMax,
			RIRTarget:         0,
		}}
	case types.SessionEndurance:
		plan.Sets, plan.Autoregulation = g.enduranceLadder(sp, tm, z, deload, deloadFactor)
	case types.SessionStrength, types.SessionHypertrophy, types.SessionTechnique:
		reps := repsFor(sp, tm)
		sets := (sp.SetsMin + sp.SetsMax) / 2
		if deload {
			sets = scaleSets(sets, deloadFactor)
		}
		sets, reps, plan.Autoregulation = adaptation.Autoregulate(sets, reps, z, g.params.Adaptation)

		added := 0.0
		if typ == types.SessionStrength {
			added = g.def.AddedWeight(tm)
		}
		plan.Sets = make([]types.PlannedSet, sets)
		for i := range plan.Sets {
			plan.Sets[i] = types.PlannedSet{
				TargetReps:        reps,
				RestSecondsBefore: (sp.RestMin + sp.RestMax) / 2,
				AddedWeightKg:     added,
				RIRTarget:         sp.RIRTarget,
			}
		}
	default:
		return types.SessionPlan{}, fmt.Errorf("%w: session type %q", types.ErrUnknownEnum, typ)
	}

	g.state = physiology.Apply(g.state, performedAsPlanned(plan, g.bodyweight), g.def, g.params)
	return plan, nil
}

// enduranceLadder builds descending sets from the working reps until the
// volume goal or the set cap is reached.
func (g *generator) enduranceLadder(sp exercise.SessionParams, tm int, z float64, deload bool, deloadFactor float64) ([]types.PlannedSet, types.Autoregulation) {
	start := repsFor(sp, tm)
	volume := float64(tm) * g.def.EnduranceVolumeMultiplier

	var reps []int
	total := 0
	for i := 0; i < sp.SetsMax && float64(total) < volume; i++ {
		r := max(sp.RepsMin, start-i)
		reps = append(reps, r)
		total += r
	}
	if deload {
		reps = reps[:scaleSets(len(reps), deloadFactor)]
	}

	sets, bump, label := adaptation.Autoregulate(len(reps), 0, z, g.params.Adaptation)
	reps = reps[:sets]

	rest := (sp.RestMin + sp.RestMax) / 2
	out := make([]types.PlannedSet, len(reps))
	for i, r := range reps {
		out[i] = types.PlannedSet{TargetReps: r + bump, RestSecondsBefore: rest, RIRTarget: sp.RIRTarget}
	}
	return out, label
}

// variant alternates the hypertrophy pair and uses the primary variant for
// every other session type.
func (g *generator) variant(typ types.SessionType) string {
	if typ != types.SessionHypertrophy {
		return g.def.PrimaryVariant()
	}
	pair := g.def.HypertrophyVariants
	next := pair[0]
	if g.lastH == pair[0] {
		next = pair[1]
	}
	g.lastH = next
	return next
}

// repsFor returns the midpoint of the training-max scaled rep range, clamped
// to the session's bounds.
func repsFor(sp exercise.SessionParams, tm int) int {
	lo := float64(tm) * sp.RepsFractionLow
	hi := float64(tm) * sp.RepsFractionHigh
	reps := int((lo + hi) / 2)
	return min(sp.RepsMax, max(sp.RepsMin, reps))
}

func scaleSets(sets int, factor float64) int {
	if factor <= 0 {
		return max(1, sets)
	}
	return min(sets, max(1, int(math.Round(float64(sets)*factor))))
}

// performedAsPlanned turns a prescription into the session that would result
// from completing it exactly at its reps-in-reserve target.
func performedAsPlanned(plan types.SessionPlan, bodyweightKg float64) types.Session {
	s := plan.AsSession(bodyweightKg)
	s.CompletedSets = make([]types.Set, len(plan.Sets))
	for i, ps := range plan.Sets {
		reps, rir := ps.TargetReps, ps.RIRTarget
		s.CompletedSets[i] = types.Set{
			TargetReps:        ps.TargetReps,
			ActualReps:        &reps,
			RestSecondsBefore: ps.RestSecondsBefore,
			AddedWeightKg:     ps.AddedWeightKg,
			RIRTarget:         ps.RIRTarget,
			RIRReported:       &rir,
		}
	}
	return s
}
