package athlete

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// MaxAthleteIDLength is the maximum length of an athlete ID.
	MaxAthleteIDLength = 64
	// DefaultAthleteID is the auto-created default athlete.
	DefaultAthleteID = "default"
)

var (
	// ErrInvalidAthleteID indicates an athlete ID failed validation.
	ErrInvalidAthleteID = errors.New("invalid athlete ID")
	// ErrAthleteNotFound indicates the requested athlete does not exist.
	ErrAthleteNotFound = errors.New("athlete not found")
	// ErrAthleteAlreadyExists indicates an athlete already exists during creation.
	ErrAthleteAlreadyExists = errors.New("athlete already exists")
)

// athleteIDPattern must start and end with alphanumeric, can contain hyphens in middle.
var athleteIDPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateAthleteID validates an athlete ID against format rules.
// IDs map directly onto directory names, so no path separators are allowed.
func ValidateAthleteID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty athlete ID", ErrInvalidAthleteID)
	}
	if len(id) > MaxAthleteIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidAthleteID, MaxAthleteIDLength)
	}
	if !athleteIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q must be lowercase alphanumeric with hyphens", ErrInvalidAthleteID, id)
	}
	return nil
}

// IsDefaultAthlete returns true if the ID is the default athlete.
func IsDefaultAthlete(id string) bool {
	return id == DefaultAthleteID
}
