package validation

import (
	"fmt"
	"sort"

	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/types"
)

const (
	// MaxNotesLength is the longest accepted session note, in runes.
	MaxNotesLength = 2000
	// MaxNameLength is the longest accepted free-text name, in runes.
	MaxNameLength = 100
	// MaxSetsPerSession bounds planned and completed sets separately.
	MaxSetsPerSession = 50
	// MaxReportedRIR is the largest accepted reps-in-reserve report.
	MaxReportedRIR = 10
)

// ValidateSession checks one session against its exercise definition and
// returns every failure found.
func ValidateSession(s types.Session, def exercise.Definition) []ValidationError {
	c := &Collector{}

	if s.ID != "" {
		c.Add(ValidateULID("id", s.ID))
	}
	if r := ValidateRequired("exercise_id", s.ExerciseID); r != nil {
		c.Add(r)
	} else if s.ExerciseID != def.ID {
		c.Add(&ValidationError{Field: "exercise_id", Message: fmt.Sprintf("must be %q", def.ID)})
	}
	if s.Date.IsZero() {
		c.Add(&ValidationError{Field: "date", Message: "is required"})
	}
	c.Add(ValidatePositive("bodyweight_kg", s.BodyweightKg))
	if r := ValidateRequired("variant", s.Variant); r != nil {
		c.Add(r)
	} else {
		c.Add(ValidateEnum("variant", s.Variant, def.Variants))
	}
	if !s.SessionType.Valid() {
		c.Add(ValidateEnum("session_type", string(s.SessionType), sessionTypeNames()))
	}
	ValidateText(c, "notes", s.Notes, MaxNotesLength)

	if s.Equipment != nil {
		ValidateText(c, "equipment.active_item", s.Equipment.ActiveItem, MaxNameLength)
		c.Add(ValidateNonNegative("equipment.assistance_kg", s.Equipment.AssistanceKg))
	}

	if len(s.PlannedSets) == 0 && len(s.CompletedSets) == 0 {
		c.Add(&ValidationError{Field: "completed_sets", Message: "session must contain at least one set"})
	}
	if len(s.PlannedSets) > MaxSetsPerSession {
		c.Add(&ValidationError{Field: "planned_sets", Message: fmt.Sprintf("exceeds maximum of %d sets", MaxSetsPerSession)})
	}
	if len(s.CompletedSets) > MaxSetsPerSession {
		c.Add(&ValidationError{Field: "completed_sets", Message: fmt.Sprintf("exceeds maximum of %d sets", MaxSetsPerSession)})
	}

	for i, set := range s.PlannedSets {
		prefix := fmt.Sprintf("planned_sets[%d]", i)
		validateSetMagnitudes(c, prefix, set)
		if set.ActualReps != nil {
			c.Add(&ValidationError{Field: prefix + ".actual_reps", Message: "must not be set on a planned set"})
		}
		if set.RIRReported != nil {
			c.Add(&ValidationError{Field: prefix + ".rir_reported", Message: "must not be set on a planned set"})
		}
	}
	for i, set := range s.CompletedSets {
		prefix := fmt.Sprintf("completed_sets[%d]", i)
		validateSetMagnitudes(c, prefix, set)
		if set.ActualReps != nil {
			c.Add(ValidateNonNegative(prefix+".actual_reps", float64(*set.ActualReps)))
		}
		if set.RIRReported != nil {
			c.Add(ValidateRange(prefix+".rir_reported", float64(*set.RIRReported), 0, MaxReportedRIR))
		}
	}

	return c.Errors()
}

func validateSetMagnitudes(c *Collector, prefix string, set types.Set) {
	c.Add(ValidateNonNegative(prefix+".target_reps", float64(set.TargetReps)))
	c.Add(ValidateNonNegative(prefix+".rest_seconds_before", float64(set.RestSecondsBefore)))
	c.Add(ValidateNonNegative(prefix+".added_weight_kg", set.AddedWeightKg))
	c.Add(ValidateNonNegative(prefix+".rir_target", float64(set.RIRTarget)))
}

// ValidateProfile checks athlete inputs. Target and baseline keys must name
// exercises in exerciseIDs.
func ValidateProfile(p types.Profile, exerciseIDs []string) []ValidationError {
	c := &Collector{}

	ValidateText(c, "name", p.Name, MaxNameLength)
	c.Add(ValidatePositive("bodyweight_kg", p.BodyweightKg))
	if p.DaysPerWeek != 3 && p.DaysPerWeek != 4 {
		c.Add(&ValidationError{Field: "days_per_week", Message: "must be 3 or 4"})
	}
	validateGoals(c, "targets", p.Targets, exerciseIDs)
	validateGoals(c, "baselines", p.Baselines, exerciseIDs)

	return c.Errors()
}

func validateGoals(c *Collector, field string, goals map[string]int, exerciseIDs []string) {
	keys := make([]string, 0, len(goals))
	for k := range goals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := fmt.Sprintf("%s[%s]", field, k)
		c.Add(ValidateEnum(f, k, exerciseIDs))
		if goals[k] < 1 {
			c.Add(&ValidationError{Field: f, Message: "must be at least 1"})
		}
	}
}

func sessionTypeNames() []string {
	names := make([]string, len(types.SessionTypes))
	for i, t := range types.SessionTypes {
		names[i] = string(t)
	}
	return names
}
