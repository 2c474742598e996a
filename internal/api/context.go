package api

import (
	"context"
	"errors"

	"github.com/hyperengineering/ascent/internal/athlete"
)

// athleteContextKey is the context key for the resolved athlete.
type athleteContextKey struct{}

// athleteIDContextKey is the context key for the athlete ID (for logging).
type athleteIDContextKey struct{}

// ErrNoAthleteInContext indicates no athlete was found in the context.
var ErrNoAthleteInContext = errors.New("no athlete in context")

// WithAthlete returns a new context with the athlete attached.
func WithAthlete(ctx context.Context, a *athlete.Athlete) context.Context {
	return context.WithValue(ctx, athleteContextKey{}, a)
}

// AthleteFromContext extracts the athlete from the context.
// Returns ErrNoAthleteInContext if not present or nil.
func AthleteFromContext(ctx context.Context) (*athlete.Athlete, error) {
	a, ok := ctx.Value(athleteContextKey{}).(*athlete.Athlete)
	if !ok || a == nil {
		return nil, ErrNoAthleteInContext
	}
	return a, nil
}

// MustAthleteFromContext extracts the athlete or panics.
// Use only when middleware guarantees athlete presence.
func MustAthleteFromContext(ctx context.Context) *athlete.Athlete {
	a, err := AthleteFromContext(ctx)
	if err != nil {
		panic("athlete not in context: middleware misconfiguration")
	}
	return a
}

// WithAthleteID returns a new context with the athlete ID attached.
func WithAthleteID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, athleteIDContextKey{}, id)
}

// AthleteIDFromContext extracts the athlete ID from the context.
// Returns the default athlete ID if not present or empty.
func AthleteIDFromContext(ctx context.Context) string {
	id, ok := ctx.Value(athleteIDContextKey{}).(string)
	if !ok || id == "" {
		return athlete.DefaultAthleteID
	}
	return id
}
