package athlete

import (
	"fmt"
	"os"
	"time"

	"github.com/hyperengineering/ascent/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	profileFile = "profile.yaml"
	historyFile = "history.db"
)

// DefaultDaysPerWeek is the training frequency given to auto-created athletes.
const DefaultDaysPerWeek = 3

// NewProfile stamps creation and access times onto p and fills the default
// training frequency when none is set.
func NewProfile(p types.Profile) types.Profile {
	now := time.Now().UTC()
	p.Created = now
	p.LastAccessed = now
	if p.DaysPerWeek == 0 {
		p.DaysPerWeek = DefaultDaysPerWeek
	}
	return p
}

// LoadProfile reads an athlete profile from a file path.
// Returns an error if the file doesn't exist or is malformed.
func LoadProfile(path string) (*types.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p types.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse athlete profile: %w", err)
	}

	return &p, nil
}

// SaveProfile writes an athlete profile to a file path.
func SaveProfile(path string, p *types.Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal athlete profile: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Info contains summary information about an athlete.
type Info struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	BodyweightKg float64   `json:"bodyweight_kg"`
	DaysPerWeek  int       `json:"days_per_week"`
	Created      time.Time `json:"created"`
	LastAccessed time.Time `json:"last_accessed"`
	SizeBytes    int64     `json:"size_bytes"`
}
