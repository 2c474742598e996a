package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/ascent/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const (
	kindPlanned   = "planned"
	kindCompleted = "completed"
)

// SQLiteStore is the SQLite-backed session history of one athlete.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serialises writers and keeps a ":memory:"
	// database visible to every query.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertSession stores a session. A session already stored under the same
// (exercise, date, type) key is replaced and keeps its id and creation time.
func (s *SQLiteStore) UpsertSession(ctx context.Context, sess types.Session) (*UpsertResult, error) {
	if sess.ExerciseID == "" || sess.Date.IsZero() || !sess.SessionType.Valid() {
		return nil, fmt.Errorf("%w: exercise, date and a known session type are required", ErrInvalidSession)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := upsertSession(ctx, tx, sess, time.Now().UTC().Truncate(time.Second))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Debug("session stored",
		"component", "store",
		"action", "upsert",
		"session_id", result.Session.ID,
		"exercise", result.Session.ExerciseID,
		"replaced", result.Replaced,
	)
	return result, nil
}

func upsertSession(ctx context.Context, tx *sql.Tx, sess types.Session, now time.Time) (*UpsertResult, error) {
	var (
		createdAt string
		existing  bool
		replaced  bool
	)

	err := tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM sessions WHERE exercise_id = ? AND date = ? AND session_type = ?`,
		sess.ExerciseID, sess.Date.String(), string(sess.SessionType),
	).Scan(&sess.ID, &createdAt)
	switch {
	case err == nil:
		existing, replaced = true, true
	case errors.Is(err, sql.ErrNoRows):
		if sess.ID == "" {
			sess.ID = ulid.Make().String()
			break
		}
		err = tx.QueryRowContext(ctx, `SELECT created_at FROM sessions WHERE id = ?`, sess.ID).Scan(&createdAt)
		if err == nil {
			existing = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup session: %w", err)
		}
	default:
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	equipment, err := marshalEquipment(sess.Equipment)
	if err != nil {
		return nil, err
	}

	sess.UpdatedAt = now
	if existing {
		sess.CreatedAt = parseTimestamp(createdAt)
		_, err = tx.ExecContext(ctx, `
			UPDATE sessions
			SET exercise_id = ?, date = ?, session_type = ?, type_order = ?,
			    bodyweight_kg = ?, variant = ?, notes = ?, equipment = ?, updated_at = ?
			WHERE id = ?
		`, sess.ExerciseID, sess.Date.String(), string(sess.SessionType), sess.SessionType.Order(),
			sess.BodyweightKg, sess.Variant, sess.Notes, equipment, formatTimestamp(now), sess.ID)
		if err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_sets WHERE session_id = ?`, sess.ID); err != nil {
			return nil, fmt.Errorf("clear sets: %w", err)
		}
	} else {
		sess.CreatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (
				id, exercise_id, date, session_type, type_order,
				bodyweight_kg, variant, notes, equipment, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sess.ID, sess.ExerciseID, sess.Date.String(), string(sess.SessionType), sess.SessionType.Order(),
			sess.BodyweightKg, sess.Variant, sess.Notes, equipment, formatTimestamp(now), formatTimestamp(now))
		if err != nil {
			return nil, fmt.Errorf("insert session: %w", err)
		}
	}

	if err := insertSets(ctx, tx, sess.ID, kindPlanned, sess.PlannedSets); err != nil {
		return nil, err
	}
	if err := insertSets(ctx, tx, sess.ID, kindCompleted, sess.CompletedSets); err != nil {
		return nil, err
	}

	return &UpsertResult{Session: sess, Replaced: replaced}, nil
}

func insertSets(ctx context.Context, tx *sql.Tx, sessionID, kind string, sets []types.Set) error {
	if len(sets) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_sets (
			session_id, kind, position, target_reps, actual_reps,
			rest_seconds_before, added_weight_kg, rir_target, rir_reported
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, set := range sets {
		_, err := stmt.ExecContext(ctx,
			sessionID, kind, i, set.TargetReps, nullableInt(set.ActualReps),
			set.RestSecondsBefore, set.AddedWeightKg, set.RIRTarget, nullableInt(set.RIRReported),
		)
		if err != nil {
			return fmt.Errorf("insert %s set %d: %w", kind, i, err)
		}
	}
	return nil
}

const sessionColumns = `s.id, s.exercise_id, s.date, s.session_type, s.bodyweight_kg,
	s.variant, s.notes, s.equipment, s.created_at, s.updated_at`

// ListSessions returns the history of one exercise sorted by date and
// session type. An empty exerciseID lists every exercise.
func (s *SQLiteStore) ListSessions(ctx context.Context, exerciseID string) ([]types.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions s
		WHERE (? = '' OR s.exercise_id = ?)
		ORDER BY s.date, s.type_order, s.exercise_id
	`, exerciseID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	var sessions []types.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	rows.Close()

	if err := s.attachSets(ctx, sessions, `(? = '' OR s.exercise_id = ?)`, exerciseID, exerciseID); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns one session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	one := []types.Session{*sess}
	if err := s.attachSets(ctx, one, `s.id = ?`, id); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// DeleteSession removes a session and its sets.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_sets WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete sets: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	slog.Debug("session deleted", "component", "store", "action", "delete", "session_id", id)
	return nil
}

// Stats returns aggregate history statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByExercise: map[string]int64{}}

	var first, last sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(date), MAX(date) FROM sessions`).
		Scan(&stats.Sessions, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if first.Valid {
		if d, err := types.ParseDate(first.String); err == nil {
			stats.FirstDate = &d
		}
	}
	if last.Valid {
		if d, err := types.ParseDate(last.String); err == nil {
			stats.LastDate = &d
		}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_sets`).Scan(&stats.Sets); err != nil {
		return nil, fmt.Errorf("count sets: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT exercise_id, COUNT(*) FROM sessions GROUP BY exercise_id`)
	if err != nil {
		return nil, fmt.Errorf("count by exercise: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan exercise count: %w", err)
		}
		stats.ByExercise[id] = n
	}
	return stats, rows.Err()
}

// attachSets loads the sets of every session matched by where and attaches
// them in position order.
func (s *SQLiteStore) attachSets(ctx context.Context, sessions []types.Session, where string, args ...any) error {
	if len(sessions) == 0 {
		return nil
	}
	index := make(map[string]int, len(sessions))
	for i := range sessions {
		index[sessions[i].ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ss.session_id, ss.kind, ss.target_reps, ss.actual_reps,
		       ss.rest_seconds_before, ss.added_weight_kg, ss.rir_target, ss.rir_reported
		FROM session_sets ss
		JOIN sessions s ON s.id = ss.session_id
		WHERE `+where+`
		ORDER BY ss.session_id, ss.kind, ss.position
	`, args...)
	if err != nil {
		return fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sessionID, kind     string
			set                 types.Set
			actual, rirReported sql.NullInt64
		)
		err := rows.Scan(&sessionID, &kind, &set.TargetReps, &actual,
			&set.RestSecondsBefore, &set.AddedWeightKg, &set.RIRTarget, &rirReported)
		if err != nil {
			return fmt.Errorf("scan set: %w", err)
		}
		set.ActualReps = intFromNull(actual)
		set.RIRReported = intFromNull(rirReported)

		i, ok := index[sessionID]
		if !ok {
			continue
		}
		if kind == kindPlanned {
			sessions[i].PlannedSets = append(sessions[i].PlannedSets, set)
		} else {
			sessions[i].CompletedSets = append(sessions[i].CompletedSets, set)
		}
	}
	return rows.Err()
}

// scanSession scans a sessions row, decoding the date, type and equipment.
func scanSession(scanner interface{ Scan(...any) error }) (*types.Session, error) {
	var (
		sess                 types.Session
		date, sessionType    string
		equipment            sql.NullString
		createdAt, updatedAt string
	)
	err := scanner.Scan(
		&sess.ID,
		&sess.ExerciseID,
		&date,
		&sessionType,
		&sess.BodyweightKg,
		&sess.Variant,
		&sess.Notes,
		&equipment,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sess.Date, err = types.ParseDate(date); err != nil {
		return nil, err
	}
	if sess.SessionType, err = types.ParseSessionType(sessionType); err != nil {
		return nil, err
	}
	if equipment.Valid && equipment.String != "" {
		sess.Equipment = &types.Equipment{}
		if err := json.Unmarshal([]byte(equipment.String), sess.Equipment); err != nil {
			return nil, fmt.Errorf("parse equipment JSON: %w", err)
		}
	}
	sess.CreatedAt = parseTimestamp(createdAt)
	sess.UpdatedAt = parseTimestamp(updatedAt)

	return &sess, nil
}

func marshalEquipment(e *types.Equipment) (any, error) {
	if e == nil {
		return nil, nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal equipment: %w", err)
	}
	return string(b), nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		slog.Warn("sessions: failed to parse timestamp", "component", "store", "value", value, "error", err)
		return time.Time{}
	}
	return t
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
