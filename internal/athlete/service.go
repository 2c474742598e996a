package athlete

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hyperengineering/ascent/internal/adaptation"
	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/maxest"
	"github.com/hyperengineering/ascent/internal/metrics"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/planner"
	"github.com/hyperengineering/ascent/internal/types"
	"github.com/hyperengineering/ascent/internal/validation"
)

// LogResult is the outcome of recording one session.
type LogResult struct {
	Session      types.Session      `json:"session"`
	Replaced     bool               `json:"replaced"`
	Estimate     *types.MaxEstimate `json:"estimate,omitempty"`
	PreviousBest int                `json:"previous_best"`
	PersonalBest bool               `json:"personal_best"`
}

// LogSession validates and stores a session, then checks it for a personal
// best against the TEST results recorded before its date. A TEST is a
// personal best when it beats every earlier TEST. Any other session is
// judged by its max estimate, which needs an earlier TEST to compare with.
func (a *Athlete) LogSession(ctx context.Context, s types.Session, def exercise.Definition, p model.Params) (*LogResult, error) {
	if errs := validation.ValidateSession(s, def); len(errs) > 0 {
		return nil, validation.Errors(errs)
	}

	history, err := a.Store.ListSessions(ctx, def.ID)
	if err != nil {
		return nil, err
	}
	best := metrics.BestTestMax(adaptation.ForExercise(history, def.ID, s.Date.AddDays(-1)))

	stored, err := a.Store.UpsertSession(ctx, s)
	if err != nil {
		return nil, err
	}

	result := &LogResult{
		Session:      stored.Session,
		Replaced:     stored.Replaced,
		PreviousBest: best,
	}
	if s.SessionType == types.SessionTest {
		result.PersonalBest = metrics.TestMax(s) > best
	} else {
		est, err := maxest.Estimate(s.CompletedSets, p.Estimator)
		switch {
		case err == nil:
			result.Estimate = &est
			result.PersonalBest = best > 0 && maxest.IsPersonalBest(est, float64(best))
		case !errors.Is(err, maxest.ErrInsufficientData):
			return nil, err
		}
	}

	slog.Info("session logged",
		"component", "athlete",
		"action", "log_session",
		"athlete_id", a.ID,
		"exercise", def.ID,
		"session_id", result.Session.ID,
		"session_type", string(s.SessionType),
		"replaced", result.Replaced,
		"personal_best", result.PersonalBest,
	)
	return result, nil
}

// Status assesses one exercise as of a date. A zero asOf means the date of
// the last logged session.
func (a *Athlete) Status(ctx context.Context, def exercise.Definition, asOf types.Date, p model.Params) (types.TrainingStatus, error) {
	history, err := a.Store.ListSessions(ctx, def.ID)
	if err != nil {
		return types.TrainingStatus{}, err
	}
	return adaptation.Assess(history, def, a.Profile(), asOf, p)
}

// Plan generates the forward schedule of one exercise. A zero start means
// today.
func (a *Athlete) Plan(ctx context.Context, def exercise.Definition, start types.Date, weeks int, p model.Params) ([]types.SessionPlan, error) {
	history, err := a.Store.ListSessions(ctx, def.ID)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = types.NewDate(time.Now())
	}
	return planner.Generate(planner.Request{
		History:    history,
		Definition: def,
		Profile:    a.Profile(),
		Start:      start,
		Weeks:      weeks,
		Params:     p,
	})
}
