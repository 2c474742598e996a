package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/types"
)

func intPtr(v int) *int { return &v }

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func testSession(date string, st types.SessionType, reps ...int) types.Session {
	s := types.Session{
		ExerciseID:   exercise.PullUp,
		Date:         types.MustDate(date),
		BodyweightKg: 80,
		Variant:      "pronated",
		SessionType:  st,
	}
	for _, r := range reps {
		s.CompletedSets = append(s.CompletedSets, types.Set{ActualReps: intPtr(r), RestSecondsBefore: 180})
	}
	return s
}

func TestRestFactor_Bounds(t *testing.T) {
	p := model.Default().Metrics
	for _, rest := range []float64{-10, 0, 1, 30, 60, 120, 180, 240, 600, 3600, 1e6} {
		f := RestFactor(rest, p)
		if f < p.RestFactorMin || f > p.RestFactorMax {
			t.Errorf("RestFactor(%v) = %v, outside [%v, %v]", rest, f, p.RestFactorMin, p.RestFactorMax)
		}
	}
	if got := RestFactor(0, p); got != p.RestFactorMin {
		t.Errorf("RestFactor(0) = %v, want %v", got, p.RestFactorMin)
	}
	if got := RestFactor(180, p); !approx(got, 1.0, 1e-12) {
		t.Errorf("RestFactor(180) = %v, want 1.0", got)
	}
}

func TestRestFactor_Monotone(t *testing.T) {
	p := model.Default().Metrics
	prev := RestFactor(1, p)
	for rest := 2.0; rest <= 1200; rest += 7 {
		f := RestFactor(rest, p)
		if f < prev {
			t.Fatalf("RestFactor decreased from %v to %v at rest %v", prev, f, rest)
		}
		prev = f
	}
}

func TestEffectiveLoad(t *testing.T) {
	if got := EffectiveLoad(80, 1.0, 10, 0); got != 90 {
		t.Errorf("EffectiveLoad = %v, want 90", got)
	}
	if got := EffectiveLoad(80, 0.5, 0, 60); got != 0 {
		t.Errorf("EffectiveLoad with heavy assistance = %v, want 0", got)
	}
}

func TestLoadNormalizedReps(t *testing.T) {
	if got := LoadNormalizedReps(10, 90, 0, 1); got != 10 {
		t.Errorf("zero reference must leave reps unchanged, got %v", got)
	}
	if got := LoadNormalizedReps(10, 120, 80, 1); !approx(got, 15, 1e-9) {
		t.Errorf("LoadNormalizedReps = %v, want 15", got)
	}
}

func TestNormalizedSetReps_BodyweightAtReferenceRest(t *testing.T) {
	def, _ := exercise.Builtin().Get(exercise.PullUp)
	s := testSession("2026-01-05", types.SessionStrength, 8)
	p := model.Default().Metrics
	p.ReferenceBodyweightKg = 80
	got := NormalizedSetReps(8, s.CompletedSets[0], s, def, p)
	if !approx(got, 8, 1e-9) {
		t.Errorf("NormalizedSetReps = %v, want 8", got)
	}
}

func TestNormalizedSetReps_BodyweightChangesCredit(t *testing.T) {
	def, _ := exercise.Builtin().Get(exercise.PullUp)
	p := model.Default().Metrics
	p.ReferenceBodyweightKg = 80

	light := testSession("2026-01-05", types.SessionStrength, 10)
	light.BodyweightKg = 70
	heavy := testSession("2026-01-05", types.SessionStrength, 10)
	heavy.BodyweightKg = 90

	atLight := NormalizedSetReps(10, light.CompletedSets[0], light, def, p)
	atHeavy := NormalizedSetReps(10, heavy.CompletedSets[0], heavy, def, p)
	if !approx(atLight, 10*70.0/80, 1e-9) {
		t.Errorf("NormalizedSetReps at 70kg = %v, want %v", atLight, 10*70.0/80)
	}
	if !approx(atHeavy, 10*90.0/80, 1e-9) {
		t.Errorf("NormalizedSetReps at 90kg = %v, want %v", atHeavy, 10*90.0/80)
	}
}

func TestNormalizedSetReps_NoReferenceLeavesRepsUnmodified(t *testing.T) {
	def, _ := exercise.Builtin().Get(exercise.PullUp)
	s := testSession("2026-01-05", types.SessionStrength, 10)
	s.BodyweightKg = 90
	if got := NormalizedSetReps(10, s.CompletedSets[0], s, def, model.Default().Metrics); !approx(got, 10, 1e-9) {
		t.Errorf("NormalizedSetReps without reference = %v, want 10", got)
	}
}

func TestTrainingMax_SingleTest(t *testing.T) {
	history := []types.Session{testSession("2026-01-05", types.SessionTest, 10)}
	tm, err := TrainingMax(history, nil, model.Default().Metrics)
	if err != nil {
		t.Fatal(err)
	}
	if tm != 9 {
		t.Errorf("TrainingMax = %d, want 9", tm)
	}
}

func TestTrainingMax_Fallbacks(t *testing.T) {
	p := model.Default().Metrics

	tm, err := TrainingMax(nil, intPtr(7), p)
	if err != nil || tm != 6 {
		t.Errorf("TrainingMax(baseline 7) = %d, %v; want 6", tm, err)
	}

	tm, _ = TrainingMax(nil, intPtr(10), p)
	if tm != 9 {
		t.Errorf("TrainingMax(baseline 10) = %d, want 9", tm)
	}

	tm, _ = TrainingMax(nil, intPtr(1), p)
	if tm != 1 {
		t.Errorf("TrainingMax(baseline 1) = %d, want 1", tm)
	}

	_, err = TrainingMax([]types.Session{testSession("2026-01-05", types.SessionStrength, 5)}, nil, p)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}

	tm, _ = TrainingMax([]types.Session{testSession("2026-01-05", types.SessionTest, 1)}, nil, p)
	if tm != 1 {
		t.Errorf("TrainingMax floor = %d, want 1", tm)
	}
}

func TestLatestTestMax_UsesMostRecent(t *testing.T) {
	history := []types.Session{
		testSession("2026-01-01", types.SessionTest, 12),
		testSession("2026-01-15", types.SessionTest, 10),
		testSession("2026-01-16", types.SessionStrength, 20),
	}
	m, ok := LatestTestMax(history)
	if !ok || m != 10 {
		t.Errorf("LatestTestMax = %d, %v; want 10, true", m, ok)
	}
	if best := BestTestMax(history); best != 12 {
		t.Errorf("BestTestMax = %d, want 12", best)
	}
}

func TestTrendSlope(t *testing.T) {
	asOf := types.MustDate("2026-01-15")
	history := []types.Session{
		testSession("2026-01-01", types.SessionTest, 10),
		testSession("2026-01-08", types.SessionTest, 11),
		testSession("2026-01-15", types.SessionTest, 12),
	}
	if got := TrendSlope(history, asOf, 21); !approx(got, 1.0, 1e-9) {
		t.Errorf("TrendSlope = %v, want 1.0 reps/week", got)
	}

	if got := TrendSlope(history[:1], asOf, 21); got != 0 {
		t.Errorf("TrendSlope with one point = %v, want 0", got)
	}

	sameDay := []types.Session{
		testSession("2026-01-15", types.SessionTest, 10),
		testSession("2026-01-15", types.SessionTest, 12),
	}
	if got := TrendSlope(sameDay, asOf, 21); got != 0 {
		t.Errorf("TrendSlope with zero date spread = %v, want 0", got)
	}

	if got := TrendSlope(history, types.MustDate("2026-03-01"), 21); got != 0 {
		t.Errorf("TrendSlope outside window = %v, want 0", got)
	}
}

func TestSessionCompliance(t *testing.T) {
	s := testSession("2026-01-05", types.SessionStrength, 4, 4)
	s.PlannedSets = []types.Set{{TargetReps: 5}, {TargetReps: 5}}
	c := SessionCompliance(s)
	if c.Kind != types.ComplianceBounded || !approx(c.Ratio, 0.8, 1e-12) {
		t.Errorf("SessionCompliance = %+v, want bounded 0.8", c)
	}

	unplanned := testSession("2026-01-05", types.SessionStrength, 6)
	if c := SessionCompliance(unplanned); c.Kind != types.ComplianceUnbounded {
		t.Errorf("expected unbounded, got %+v", c)
	}

	empty := testSession("2026-01-05", types.SessionStrength)
	if c := SessionCompliance(empty); c.Kind != types.ComplianceBounded || c.Ratio != 1 {
		t.Errorf("nothing planned or done = %+v, want bounded 1.0", c)
	}
}

func TestWeeklyCompliance_EmptySessionCountsAsFull(t *testing.T) {
	asOf := types.MustDate("2026-01-10")
	half := testSession("2026-01-08", types.SessionStrength, 5)
	half.PlannedSets = []types.Set{{TargetReps: 10}}
	history := []types.Session{
		testSession("2026-01-06", types.SessionTechnique),
		half,
	}

	ratio, unplanned := WeeklyCompliance(history, asOf, 7)
	if !approx(ratio, 0.75, 1e-12) {
		t.Errorf("ratio = %v, want 0.75", ratio)
	}
	if unplanned != 0 {
		t.Errorf("unplanned = %d, want 0", unplanned)
	}
}

func TestWeeklyCompliance(t *testing.T) {
	asOf := types.MustDate("2026-01-10")
	planned := func(date string, actual int) types.Session {
		s := testSession(date, types.SessionStrength, actual)
		s.PlannedSets = []types.Set{{TargetReps: 10}}
		return s
	}
	history := []types.Session{
		planned("2026-01-01", 0), // outside window
		planned("2026-01-05", 10),
		planned("2026-01-08", 5),
		testSession("2026-01-09", types.SessionEndurance, 8),
	}

	ratio, unplanned := WeeklyCompliance(history, asOf, 7)
	if !approx(ratio, 0.75, 1e-12) {
		t.Errorf("ratio = %v, want 0.75", ratio)
	}
	if unplanned != 1 {
		t.Errorf("unplanned = %d, want 1", unplanned)
	}

	ratio, _ = WeeklyCompliance(nil, asOf, 7)
	if ratio != 1.0 {
		t.Errorf("ratio with no sessions = %v, want 1.0", ratio)
	}
}

func TestOneRepMax_Epley(t *testing.T) {
	if got := OneRepMax(100, 10); !approx(got, 133.33, 0.01) {
		t.Errorf("OneRepMax(100, 10) = %v, want 133.33", got)
	}
	if got := OneRepMax(100, 0); got != 0 {
		t.Errorf("OneRepMax with zero reps = %v", got)
	}
}

func TestBestOneRepMax_SubtractsAssistance(t *testing.T) {
	def, _ := exercise.Builtin().Get(exercise.PullUp)
	s := testSession("2026-01-05", types.SessionStrength, 10)
	s.Equipment = &types.Equipment{AssistanceKg: 20}
	got := BestOneRepMax([]types.Session{s}, def, types.MustDate("2026-01-06"), 7)
	if !approx(got, 80, 1e-9) {
		t.Errorf("BestOneRepMax = %v, want 80 (60kg × 4/3)", got)
	}
}

func TestWeeklyHardSets(t *testing.T) {
	history := []types.Session{
		testSession("2025-12-31", types.SessionStrength, 5, 5),
		testSession("2026-01-06", types.SessionStrength, 5, 5, 0),
		testSession("2026-01-07", types.SessionHypertrophy, 8),
	}
	if got := WeeklyHardSets(history, types.MustDate("2026-01-07")); got != 3 {
		t.Errorf("WeeklyHardSets = %d, want 3", got)
	}
}
