// Package athlete manages one isolated directory per athlete under a root
// path. Each directory holds a YAML profile and a SQLite session history.
package athlete

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hyperengineering/ascent/internal/types"
)

// Manager manages athlete directories with lazy loading.
type Manager struct {
	rootPath string

	mu       sync.RWMutex
	athletes map[string]*Athlete
}

// NewManager creates a manager with the given root path.
// Creates the root directory if it doesn't exist.
func NewManager(rootPath string) (*Manager, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(rootPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		rootPath = filepath.Join(home, rootPath[2:])
	}

	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, fmt.Errorf("create athletes root directory: %w", err)
	}

	return &Manager{
		rootPath: rootPath,
		athletes: make(map[string]*Athlete),
	}, nil
}

// RootPath returns the resolved root directory.
func (m *Manager) RootPath() string {
	return m.rootPath
}

// Open returns the athlete with the given ID, loading it if necessary.
// For non-default athletes, returns ErrAthleteNotFound if the athlete doesn't exist.
// The default athlete is created on first use.
func (m *Manager) Open(ctx context.Context, id string) (*Athlete, error) {
	if err := ValidateAthleteID(id); err != nil {
		return nil, err
	}

	// Fast path: check if already loaded
	m.mu.RLock()
	if a, ok := m.athletes[id]; ok {
		m.mu.RUnlock()
		a.TouchAccessed()
		return a, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if a, ok := m.athletes[id]; ok {
		a.TouchAccessed()
		return a, nil
	}

	dir := m.athletePath(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if !IsDefaultAthlete(id) {
			return nil, ErrAthleteNotFound
		}
		if err := m.createAthleteDir(id, types.Profile{}); err != nil {
			return nil, err
		}
	}

	a, err := openAthlete(id, dir)
	if err != nil {
		return nil, fmt.Errorf("load athlete %q: %w", id, err)
	}
	m.athletes[id] = a

	slog.Info("athlete loaded",
		"component", "athlete",
		"action", "athlete_loaded",
		"athlete_id", id,
	)

	a.TouchAccessed()
	return a, nil
}

// Create creates a new athlete with the given profile.
// Returns ErrAthleteAlreadyExists if the athlete already exists.
func (m *Manager) Create(ctx context.Context, id string, profile types.Profile) (*Athlete, error) {
	if err := ValidateAthleteID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dir := m.athletePath(id)
	if _, err := os.Stat(dir); err == nil {
		return nil, ErrAthleteAlreadyExists
	}

	if err := m.createAthleteDir(id, profile); err != nil {
		return nil, err
	}

	a, err := openAthlete(id, dir)
	if err != nil {
		return nil, fmt.Errorf("load new athlete %q: %w", id, err)
	}
	m.athletes[id] = a

	slog.Info("athlete created",
		"component", "athlete",
		"action", "athlete_created",
		"athlete_id", id,
	)

	return a, nil
}

// SaveProfile replaces an existing athlete's profile.
func (m *Manager) SaveProfile(ctx context.Context, id string, profile types.Profile) error {
	a, err := m.Open(ctx, id)
	if err != nil {
		return err
	}
	return a.SetProfile(profile)
}

// Delete removes an athlete and their history.
// Returns ErrAthleteNotFound if the athlete doesn't exist.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := ValidateAthleteID(id); err != nil {
		return err
	}

	if IsDefaultAthlete(id) {
		return fmt.Errorf("cannot delete default athlete")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dir := m.athletePath(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrAthleteNotFound
	}

	// Close if loaded
	if a, ok := m.athletes[id]; ok {
		if err := a.Close(); err != nil {
			slog.Warn("error closing athlete before deletion",
				"component", "athlete", "athlete_id", id, "error", err)
		}
		delete(m.athletes, id)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove athlete directory: %w", err)
	}

	slog.Info("athlete deleted",
		"component", "athlete",
		"action", "athlete_deleted",
		"athlete_id", id,
	)

	return nil
}

// List returns summary information for all athletes, sorted by ID.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(m.rootPath)
	if err != nil {
		return nil, fmt.Errorf("read athletes directory: %w", err)
	}

	var result []Info
	for _, entry := range entries {
		if !entry.IsDir() || ValidateAthleteID(entry.Name()) != nil {
			continue
		}
		info, err := m.Info(ctx, entry.Name())
		if err != nil {
			slog.Warn("error scanning athlete directory",
				"component", "athlete", "path", entry.Name(), "error", err)
			continue
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Info collects information about a single athlete without loading their
// history. A loaded athlete reports its in-memory access time.
func (m *Manager) Info(ctx context.Context, id string) (Info, error) {
	if err := ValidateAthleteID(id); err != nil {
		return Info{}, err
	}

	dir := m.athletePath(id)
	p, err := LoadProfile(filepath.Join(dir, profileFile))
	if os.IsNotExist(err) {
		return Info{}, ErrAthleteNotFound
	}
	if err != nil {
		return Info{}, err
	}

	m.mu.RLock()
	if a, ok := m.athletes[id]; ok {
		loaded := a.Profile()
		p = &loaded
	}
	m.mu.RUnlock()

	var sizeBytes int64
	if fi, err := os.Stat(filepath.Join(dir, historyFile)); err == nil {
		sizeBytes = fi.Size()
	}

	return Info{
		ID:           id,
		Name:         p.Name,
		BodyweightKg: p.BodyweightKg,
		DaysPerWeek:  p.DaysPerWeek,
		Created:      p.Created,
		LastAccessed: p.LastAccessed,
		SizeBytes:    sizeBytes,
	}, nil
}

// athletePath returns the filesystem path for an athlete ID.
func (m *Manager) athletePath(id string) string {
	return filepath.Join(m.rootPath, id)
}

// createAthleteDir creates a new athlete directory with its profile.
func (m *Manager) createAthleteDir(id string, profile types.Profile) error {
	dir := m.athletePath(id)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create athlete directory: %w", err)
	}

	p := NewProfile(profile)
	if err := SaveProfile(filepath.Join(dir, profileFile), &p); err != nil {
		// Clean up directory on failure
		os.RemoveAll(dir)
		return fmt.Errorf("write athlete profile: %w", err)
	}

	return nil
}

// Close closes all loaded athletes.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for id, a := range m.athletes {
		if err := a.Close(); err != nil {
			slog.Error("error closing athlete", "component", "athlete", "athlete_id", id, "error", err)
			lastErr = err
		}
	}
	m.athletes = make(map[string]*Athlete)

	return lastErr
}

// FlushProfiles writes every loaded athlete's dirty profile to disk.
// Returns the number of athletes checked; failures are joined.
func (m *Manager) FlushProfiles(ctx context.Context) (int, error) {
	m.mu.RLock()
	loaded := make([]*Athlete, 0, len(m.athletes))
	for _, a := range m.athletes {
		loaded = append(loaded, a)
	}
	m.mu.RUnlock()

	var errs []error
	for _, a := range loaded {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if err := a.FlushProfile(); err != nil {
			errs = append(errs, fmt.Errorf("flush athlete %q: %w", a.ID, err))
		}
	}
	return len(loaded), errors.Join(errs...)
}
