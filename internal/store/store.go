package store

import (
	"context"
	"io"

	"github.com/hyperengineering/ascent/internal/types"
)

// Store defines the interface contract for session history storage.
type Store interface {
	UpsertSession(ctx context.Context, s types.Session) (*UpsertResult, error)
	ListSessions(ctx context.Context, exerciseID string) ([]types.Session, error)
	GetSession(ctx context.Context, id string) (*types.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ExportJSONL(ctx context.Context, w io.Writer, exerciseID string) (int, error)
	ImportJSONL(ctx context.Context, r io.Reader, check CheckFunc) (*ImportResult, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// UpsertResult is the stored session and whether it replaced an earlier
// session with the same (exercise, date, type) key.
type UpsertResult struct {
	Session  types.Session `json:"session"`
	Replaced bool          `json:"replaced"`
}

// CheckFunc validates a decoded session before import. A nil CheckFunc
// accepts every session.
type CheckFunc func(types.Session) error

// ImportResult summarises an ImportJSONL run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Replaced int      `json:"replaced"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors"`
}

// Stats holds aggregate history statistics.
type Stats struct {
	Sessions   int64            `json:"sessions"`
	Sets       int64            `json:"sets"`
	ByExercise map[string]int64 `json:"by_exercise"`
	FirstDate  *types.Date      `json:"first_date,omitempty"`
	LastDate   *types.Date      `json:"last_date,omitempty"`
}
