package athlete

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperengineering/ascent/internal/store"
	"github.com/hyperengineering/ascent/internal/types"
)

// Athlete wraps one athlete's history store with their profile and access
// tracking.
type Athlete struct {
	ID       string
	Store    store.Store
	BasePath string // Directory containing profile.yaml and history.db

	mu           sync.Mutex
	profile      types.Profile
	profileDirty bool
}

// openAthlete opens an athlete from an existing directory.
func openAthlete(id, basePath string) (*Athlete, error) {
	p, err := LoadProfile(filepath.Join(basePath, profileFile))
	if err != nil {
		return nil, fmt.Errorf("load athlete profile: %w", err)
	}

	history, err := store.NewSQLiteStore(filepath.Join(basePath, historyFile))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	return &Athlete{
		ID:       id,
		Store:    history,
		BasePath: basePath,
		profile:  *p,
	}, nil
}

// Profile returns a copy of the athlete's profile.
func (a *Athlete) Profile() types.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// SetProfile replaces the profile, keeping its creation time, and writes it
// to disk.
func (a *Athlete) SetProfile(p types.Profile) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p.Created = a.profile.Created
	p.LastAccessed = time.Now().UTC()
	if err := SaveProfile(filepath.Join(a.BasePath, profileFile), &p); err != nil {
		return err
	}
	a.profile = p
	a.profileDirty = false
	return nil
}

// TouchAccessed updates the last_accessed timestamp.
// The profile is written on FlushProfile, not on every access.
func (a *Athlete) TouchAccessed() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.profile.LastAccessed = time.Now().UTC()
	a.profileDirty = true
}

// FlushProfile saves the profile to disk if dirty.
func (a *Athlete) FlushProfile() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.profileDirty {
		return nil
	}

	if err := SaveProfile(filepath.Join(a.BasePath, profileFile), &a.profile); err != nil {
		return err
	}

	a.profileDirty = false
	return nil
}

// Close closes the history store and flushes the profile.
func (a *Athlete) Close() error {
	if err := a.FlushProfile(); err != nil {
		// Log but don't fail close
		slog.Warn("failed to flush athlete profile", "component", "athlete", "athlete_id", a.ID, "error", err)
	}
	return a.Store.Close()
}
