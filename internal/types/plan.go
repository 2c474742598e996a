package types

import "encoding/json"

// PlannedSet is a forward-only prescription. It never carries actual reps.
type PlannedSet struct {
	TargetReps        int     `json:"target_reps"`
	RestSecondsBefore int     `json:"rest_seconds_before"`
	AddedWeightKg     float64 `json:"added_weight_kg"`
	RIRTarget         int     `json:"rir_target"`
}

// Autoregulation names the readiness adjustment applied to a prescription.
type Autoregulation string

const (
	AutoregNone        Autoregulation = "none"
	AutoregReducedSets Autoregulation = "reduced_sets"
	AutoregAddedReps   Autoregulation = "added_reps"
)

// SessionPlan is one forward session prescription.
type SessionPlan struct {
	Date           Date           `json:"date"`
	ExerciseID     string         `json:"exercise_id"`
	SessionType    SessionType    `json:"session_type"`
	Variant        string         `json:"variant"`
	Sets           []PlannedSet   `json:"sets"`
	ExpectedTM     int            `json:"expected_tm"`
	WeekNumber     int            `json:"week_number"`
	ReadinessZ     float64        `json:"readiness_z"`
	Autoregulation Autoregulation `json:"autoregulation"`
	Deload         bool           `json:"deload"`
}

// TotalReps sums the prescribed reps.
func (p SessionPlan) TotalReps() int {
	total := 0
	for _, s := range p.Sets {
		total += s.TargetReps
	}
	return total
}

// AsSession converts the plan into a session whose planned sets mirror the
// prescription. Completed sets are left empty.
func (p SessionPlan) AsSession(bodyweightKg float64) Session {
	planned := make([]Set, len(p.Sets))
	for i, s := range p.Sets {
		planned[i] = Set{
			TargetReps:        s.TargetReps,
			RestSecondsBefore: s.RestSecondsBefore,
			AddedWeightKg:     s.AddedWeightKg,
			RIRTarget:         s.RIRTarget,
		}
	}
	return Session{
		ExerciseID:   p.ExerciseID,
		Date:         p.Date,
		BodyweightKg: bodyweightKg,
		Variant:      p.Variant,
		SessionType:  p.SessionType,
		PlannedSets:  planned,
	}
}

// MarshalJSON ensures nil sets marshal as [] not null.
func (p SessionPlan) MarshalJSON() ([]byte, error) {
	if p.Sets == nil {
		p.Sets = []PlannedSet{}
	}
	type Alias SessionPlan
	return json.Marshal(Alias(p))
}

// Confidence grades a between-test max estimate.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// MaxEstimate holds both single-session capacity estimates. Callers reconcile
// the two values themselves.
type MaxEstimate struct {
	FIEst       float64    `json:"fi_est"`
	NuzzoEst    float64    `json:"nuzzo_est"`
	FIReps      float64    `json:"fi_reps"`
	InferredRIR float64    `json:"inferred_rir"`
	Confidence  Confidence `json:"confidence"`
	SetsUsed    int        `json:"sets_used"`
}
