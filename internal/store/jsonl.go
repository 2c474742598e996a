package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hyperengineering/ascent/internal/types"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// ExportJSONL writes the history as one JSON session per line, sorted
// chronologically. An empty exerciseID exports every exercise. It returns the
// number of sessions written.
func (s *SQLiteStore) ExportJSONL(ctx context.Context, w io.Writer, exerciseID string) (int, error) {
	sessions, err := s.ListSessions(ctx, exerciseID)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	for i, sess := range sessions {
		if err := enc.Encode(sess); err != nil {
			return i, fmt.Errorf("encode session %s: %w", sess.ID, err)
		}
	}
	return len(sessions), nil
}

// ImportJSONL reads one JSON session per line and upserts each accepted
// session. Lines that fail to decode or fail check are rejected and reported
// without aborting the import. Blank lines are skipped.
func (s *SQLiteStore) ImportJSONL(ctx context.Context, r io.Reader, check CheckFunc) (*ImportResult, error) {
	result := &ImportResult{Errors: []string{}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var sess types.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			result.reject(line, err)
			continue
		}
		if check != nil {
			if err := check(sess); err != nil {
				result.reject(line, err)
				continue
			}
		}

		stored, err := s.UpsertSession(ctx, sess)
		if errors.Is(err, ErrInvalidSession) {
			result.reject(line, err)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("import line %d: %w", line, err)
		}
		if stored.Replaced {
			result.Replaced++
		} else {
			result.Imported++
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read import: %w", err)
	}

	slog.Info("history imported",
		"component", "store",
		"action", "import",
		"imported", result.Imported,
		"replaced", result.Replaced,
		"rejected", result.Rejected,
	)
	return result, nil
}

func (r *ImportResult) reject(line int, err error) {
	r.Rejected++
	r.Errors = append(r.Errors, fmt.Sprintf("line %d: %v", line, err))
}
