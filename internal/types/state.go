package types

import (
	"encoding/json"
	"fmt"
)

// FitnessFatigueState is the impulse-response state reconstructed from history.
// It is derived by replay and never persisted.
type FitnessFatigueState struct {
	Fitness       float64 `json:"fitness"`
	Fatigue       float64 `json:"fatigue"`
	MHat          float64 `json:"m_hat"`
	SigmaM        float64 `json:"sigma_m"`
	ReadinessMean float64 `json:"readiness_mean"`
	ReadinessVar  float64 `json:"readiness_var"`
	AsOf          Date    `json:"as_of"`
}

// Readiness returns fitness minus fatigue.
func (s FitnessFatigueState) Readiness() float64 {
	return s.Fitness - s.Fatigue
}

// ComplianceKind tags a per-session compliance result.
type ComplianceKind int

const (
	// ComplianceBounded carries a finite actual/planned ratio.
	ComplianceBounded ComplianceKind = iota
	// ComplianceUnbounded marks work performed with nothing planned.
	ComplianceUnbounded
)

// String implements fmt.Stringer.
func (k ComplianceKind) String() string {
	switch k {
	case ComplianceBounded:
		return "bounded"
	case ComplianceUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("ComplianceKind(%d)", int(k))
	}
}

// Compliance is the actual/planned ratio of one session. Unbounded results
// carry no ratio and must never be averaged.
type Compliance struct {
	Kind  ComplianceKind `json:"kind"`
	Ratio float64        `json:"ratio"`
}

// MarshalJSON renders the kind by name.
func (c Compliance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string  `json:"kind"`
		Ratio float64 `json:"ratio"`
	}{Kind: c.Kind.String(), Ratio: c.Ratio})
}

// VolumeAction names the direction of a weekly volume decision.
type VolumeAction string

const (
	VolumeDeload   VolumeAction = "deload"
	VolumeReduce   VolumeAction = "reduce"
	VolumeIncrease VolumeAction = "increase"
	VolumeHold     VolumeAction = "hold"
)

// VolumeAdjustment is the weekly hard-set decision.
type VolumeAdjustment struct {
	Action      VolumeAction `json:"action"`
	Factor      float64      `json:"factor"`
	CurrentSets int          `json:"current_sets"`
	TargetSets  int          `json:"target_sets"`
}

// TrainingStatus is the per-invocation report on one exercise.
type TrainingStatus struct {
	ExerciseID        string              `json:"exercise_id"`
	AsOf              Date                `json:"as_of"`
	TrainingMax       int                 `json:"training_max"`
	LatestTestMax     *int                `json:"latest_test_max"`
	TrendSlope        float64             `json:"trend_slope"`
	IsPlateau         bool                `json:"is_plateau"`
	DeloadRecommended bool                `json:"deload_recommended"`
	DeloadReasons     []string            `json:"deload_reasons"`
	ComplianceRatio   float64             `json:"compliance_ratio"`
	UnplannedSessions int                 `json:"unplanned_sessions"`
	FatigueScore      float64             `json:"fatigue_score"`
	ReadinessZ        float64             `json:"readiness_z"`
	Volume            VolumeAdjustment    `json:"volume"`
	State             FitnessFatigueState `json:"state"`
}

// MarshalJSON ensures nil reasons marshal as [] not null.
func (s TrainingStatus) MarshalJSON() ([]byte, error) {
	if s.DeloadReasons == nil {
		s.DeloadReasons = []string{}
	}
	type Alias TrainingStatus
	return json.Marshal(Alias(s))
}
