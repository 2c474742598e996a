package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SessionType classifies the stimulus a session is meant to deliver.
type SessionType string

const (
	SessionStrength    SessionType = "S"
	SessionHypertrophy SessionType = "H"
	SessionEndurance   SessionType = "E"
	SessionTechnique   SessionType = "T"
	SessionTest        SessionType = "TEST"
)

// SessionTypes lists every session type in canonical order.
var SessionTypes = []SessionType{
	SessionStrength,
	SessionHypertrophy,
	SessionEndurance,
	SessionTechnique,
	SessionTest,
}

// ParseSessionType converts a wire value into a SessionType.
// Matching is case-insensitive; unknown values are rejected.
func ParseSessionType(s string) (SessionType, error) {
	switch SessionType(strings.ToUpper(strings.TrimSpace(s))) {
	case SessionStrength:
		return SessionStrength, nil
	case SessionHypertrophy:
		return SessionHypertrophy, nil
	case SessionEndurance:
		return SessionEndurance, nil
	case SessionTechnique:
		return SessionTechnique, nil
	case SessionTest:
		return SessionTest, nil
	default:
		return "", fmt.Errorf("%w: session type %q", ErrUnknownEnum, s)
	}
}

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	return t.Order() < len(SessionTypes)
}

// Order returns the position of t in SessionTypes, used to break date ties.
func (t SessionType) Order() int {
	switch t {
	case SessionStrength:
		return 0
	case SessionHypertrophy:
		return 1
	case SessionEndurance:
		return 2
	case SessionTechnique:
		return 3
	case SessionTest:
		return 4
	default:
		return len(SessionTypes)
	}
}

// UnmarshalJSON rejects unknown session types at decode time.
func (t *SessionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSessionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalText lets SessionType be used as a YAML/JSON map key.
func (t *SessionType) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Set is one planned or completed set. A set is never modified once recorded.
type Set struct {
	TargetReps        int     `json:"target_reps"`
	ActualReps        *int    `json:"actual_reps,omitempty"`
	RestSecondsBefore int     `json:"rest_seconds_before"`
	AddedWeightKg     float64 `json:"added_weight_kg"`
	RIRTarget         int     `json:"rir_target"`
	RIRReported       *int    `json:"rir_reported,omitempty"`
}

// Reps returns the performed reps, or 0 when the set was not performed.
func (s Set) Reps() int {
	if s.ActualReps == nil {
		return 0
	}
	return *s.ActualReps
}

// Performed reports whether the set carries actual reps.
func (s Set) Performed() bool {
	return s.ActualReps != nil
}

// Equipment is the equipment snapshot in use during a session.
type Equipment struct {
	ActiveItem        string  `json:"active_item,omitempty"`
	AssistanceKg      float64 `json:"assistance_kg"`
	ElevationHeightCm float64 `json:"elevation_height_cm,omitempty"`
}

// Session is one training session for one exercise.
type Session struct {
	ID            string      `json:"id,omitempty"`
	ExerciseID    string      `json:"exercise_id"`
	Date          Date        `json:"date"`
	BodyweightKg  float64     `json:"bodyweight_kg"`
	Variant       string      `json:"variant"`
	SessionType   SessionType `json:"session_type"`
	PlannedSets   []Set       `json:"planned_sets"`
	CompletedSets []Set       `json:"completed_sets"`
	Notes         string      `json:"notes,omitempty"`
	Equipment     *Equipment  `json:"equipment,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Key identifies the canonical slot a session occupies in the history.
type Key struct {
	ExerciseID  string
	Date        Date
	SessionType SessionType
}

// Key returns the canonical (exercise, date, type) key of the session.
func (s Session) Key() Key {
	return Key{ExerciseID: s.ExerciseID, Date: s.Date, SessionType: s.SessionType}
}

// AssistanceKg returns the assistance recorded in the equipment snapshot.
func (s Session) AssistanceKg() float64 {
	if s.Equipment == nil {
		return 0
	}
	return s.Equipment.AssistanceKg
}

// PlannedReps sums target reps over the planned sets.
func (s Session) PlannedReps() int {
	total := 0
	for _, set := range s.PlannedSets {
		total += set.TargetReps
	}
	return total
}

// CompletedReps sums actual reps over the completed sets.
func (s Session) CompletedReps() int {
	total := 0
	for _, set := range s.CompletedSets {
		total += set.Reps()
	}
	return total
}

// MarshalJSON ensures nil set slices marshal as [] not null and omits the
// timestamps of sessions that were never stored.
func (s Session) MarshalJSON() ([]byte, error) {
	if s.PlannedSets == nil {
		s.PlannedSets = []Set{}
	}
	if s.CompletedSets == nil {
		s.CompletedSets = []Set{}
	}
	type Alias Session
	out := struct {
		Alias
		CreatedAt *time.Time `json:"created_at,omitempty"`
		UpdatedAt *time.Time `json:"updated_at,omitempty"`
	}{Alias: Alias(s)}
	if !s.CreatedAt.IsZero() {
		out.CreatedAt = &s.CreatedAt
	}
	if !s.UpdatedAt.IsZero() {
		out.UpdatedAt = &s.UpdatedAt
	}
	return json.Marshal(out)
}

// Less orders sessions by date, then by session type order.
func Less(a, b Session) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.SessionType.Order() < b.SessionType.Order()
}

// SortSessions sorts sessions chronologically in place. The sort is stable so
// sessions sharing a key keep their write order.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return Less(sessions[i], sessions[j])
	})
}

// Canonicalize returns history sorted with at most one session per key.
// A later entry with the same key replaces the earlier one.
func Canonicalize(sessions []Session) []Session {
	latest := make(map[Key]int, len(sessions))
	for i, s := range sessions {
		latest[s.Key()] = i
	}
	out := make([]Session, 0, len(latest))
	for i, s := range sessions {
		if latest[s.Key()] == i {
			out = append(out, s)
		}
	}
	SortSessions(out)
	return out
}

// IsSorted reports whether sessions are in chronological order.
func IsSorted(sessions []Session) bool {
	for i := 1; i < len(sessions); i++ {
		if Less(sessions[i], sessions[i-1]) {
			return false
		}
	}
	return true
}

// Profile holds the athlete-level inputs the planner needs.
type Profile struct {
	Name         string         `json:"name,omitempty" yaml:"name,omitempty"`
	BodyweightKg float64        `json:"bodyweight_kg" yaml:"bodyweight_kg"`
	DaysPerWeek  int            `json:"days_per_week" yaml:"days_per_week"`
	Targets      map[string]int `json:"targets,omitempty" yaml:"targets,omitempty"`
	Baselines    map[string]int `json:"baselines,omitempty" yaml:"baselines,omitempty"`
	Created      time.Time      `json:"created" yaml:"created"`
	LastAccessed time.Time      `json:"last_accessed" yaml:"last_accessed"`
}

// Baseline returns the baseline max for an exercise, if one was supplied.
func (p Profile) Baseline(exerciseID string) (int, bool) {
	v, ok := p.Baselines[exerciseID]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Target returns the athlete's own target for an exercise, if one was supplied.
func (p Profile) Target(exerciseID string) (int, bool) {
	v, ok := p.Targets[exerciseID]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
