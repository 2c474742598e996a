package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/hyperengineering/ascent/internal/types"
)

func intPtr(v int) *int { return &v }

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func session(exercise, date string, typ types.SessionType, reps ...int) types.Session {
	sess := types.Session{
		ExerciseID:   exercise,
		Date:         types.MustDate(date),
		BodyweightKg: 80,
		Variant:      "pronated",
		SessionType:  typ,
	}
	for _, r := range reps {
		sess.PlannedSets = append(sess.PlannedSets, types.Set{TargetReps: r, RestSecondsBefore: 180, RIRTarget: 2})
		sess.CompletedSets = append(sess.CompletedSets, types.Set{
			TargetReps:        r,
			ActualReps:        intPtr(r),
			RestSecondsBefore: 180,
			RIRTarget:         2,
		})
	}
	return sess
}

var ignoreTimestamps = cmpopts.IgnoreFields(types.Session{}, "CreatedAt", "UpdatedAt")

func TestStore_UpsertAssignsIDAndRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := session("pull_up", "2026-01-05", types.SessionStrength, 5, 5, 4)
	in.Notes = "felt strong"
	in.Equipment = &types.Equipment{ActiveItem: "band", AssistanceKg: 10}
	in.CompletedSets[2].RIRReported = intPtr(1)

	res, err := s.UpsertSession(ctx, in)
	if err != nil {
		t.Fatalf("UpsertSession() error: %v", err)
	}
	if res.Replaced {
		t.Error("first write reported Replaced")
	}
	if len(res.Session.ID) != 26 {
		t.Errorf("ID = %q, want a ULID", res.Session.ID)
	}
	if res.Session.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := s.GetSession(ctx, res.Session.ID)
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if diff := cmp.Diff(res.Session, *got); diff != "" {
		t.Errorf("GetSession() mismatch (-stored +read):\n%s", diff)
	}
	if got.CompletedSets[0].RIRReported != nil {
		t.Error("unreported RIR read back as non-nil")
	}
}

func TestStore_UpsertReplacesByKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertSession(ctx, session("pull_up", "2026-01-05", types.SessionStrength, 5, 5, 5))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.UpsertSession(ctx, session("pull_up", "2026-01-05", types.SessionStrength, 6, 6))
	if err != nil {
		t.Fatal(err)
	}

	if !second.Replaced {
		t.Error("second write with same key not marked Replaced")
	}
	if second.Session.ID != first.Session.ID {
		t.Errorf("replacement ID = %s, want %s", second.Session.ID, first.Session.ID)
	}

	list, err := s.ListSessions(ctx, "pull_up")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("len(ListSessions) = %d, want 1", len(list))
	}
	if got := list[0].CompletedReps(); got != 12 {
		t.Errorf("CompletedReps = %d, want 12 from the replacement", got)
	}
}

func TestStore_DifferentTypeSameDayIsSeparate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, typ := range []types.SessionType{types.SessionTest, types.SessionStrength} {
		if _, err := s.UpsertSession(ctx, session("pull_up", "2026-01-05", typ, 5)); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListSessions(ctx, "pull_up")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].SessionType != types.SessionStrength || list[1].SessionType != types.SessionTest {
		t.Errorf("order = %s, %s; want S before TEST", list[0].SessionType, list[1].SessionType)
	}
}

func TestStore_ListSessionsSortedAndFiltered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inputs := []types.Session{
		session("pull_up", "2026-01-09", types.SessionEndurance, 4),
		session("dip", "2026-01-06", types.SessionStrength, 6),
		session("pull_up", "2026-01-05", types.SessionStrength, 5),
		session("pull_up", "2026-01-07", types.SessionHypertrophy, 8),
	}
	for _, in := range inputs {
		if _, err := s.UpsertSession(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListSessions(ctx, "pull_up")
	if err != nil {
		t.Fatal(err)
	}
	var dates []string
	for _, sess := range list {
		dates = append(dates, sess.Date.String())
	}
	want := []string{"2026-01-05", "2026-01-07", "2026-01-09"}
	if diff := cmp.Diff(want, dates); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}
	if !types.IsSorted(list) {
		t.Error("ListSessions() not sorted")
	}

	all, err := s.ListSessions(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("len(all) = %d, want 4", len(all))
	}

	none, err := s.ListSessions(ctx, "bss")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("len(bss) = %d, want 0", len(none))
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := s.UpsertSession(ctx, session("dip", "2026-01-05", types.SessionStrength, 6, 6))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession(ctx, res.Session.ID); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}
	if _, err := s.GetSession(ctx, res.Session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession() after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSession(ctx, res.Session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteSession() = %v, want ErrNotFound", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sets != 0 {
		t.Errorf("orphaned sets = %d, want 0", stats.Sets)
	}
}

func TestStore_UpsertRejectsIncompleteSession(t *testing.T) {
	s := newTestStore(t)
	tests := []struct {
		name   string
		mutate func(*types.Session)
	}{
		{"no exercise", func(s *types.Session) { s.ExerciseID = "" }},
		{"no date", func(s *types.Session) { s.Date = types.Date{} }},
		{"unknown type", func(s *types.Session) { s.SessionType = "X" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := session("pull_up", "2026-01-05", types.SessionStrength, 5)
			tt.mutate(&in)
			if _, err := s.UpsertSession(context.Background(), in); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("UpsertSession() = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()
	for i, date := range []string{"2026-01-05", "2026-01-07", "2026-01-09"} {
		if _, err := src.UpsertSession(ctx, session("pull_up", date, types.SessionStrength, 5+i, 4)); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	n, err := src.ExportJSONL(ctx, &buf, "pull_up")
	if err != nil {
		t.Fatalf("ExportJSONL() error: %v", err)
	}
	if n != 3 || strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("exported %d sessions in %d lines, want 3", n, strings.Count(buf.String(), "\n"))
	}

	dst := newTestStore(t)
	res, err := dst.ImportJSONL(ctx, &buf, nil)
	if err != nil {
		t.Fatalf("ImportJSONL() error: %v", err)
	}
	if res.Imported != 3 || res.Rejected != 0 {
		t.Errorf("ImportJSONL() = %+v, want 3 imported", res)
	}

	want, _ := src.ListSessions(ctx, "pull_up")
	got, _ := dst.ListSessions(ctx, "pull_up")
	if diff := cmp.Diff(want, got, ignoreTimestamps); diff != "" {
		t.Errorf("round trip mismatch (-exported +imported):\n%s", diff)
	}
}

func TestStore_ImportRejectsBadLines(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`{"exercise_id":"pull_up","date":"2026-01-05","bodyweight_kg":80,"variant":"pronated","session_type":"S","completed_sets":[{"target_reps":5,"actual_reps":5,"rest_seconds_before":180}]}`,
		``,
		`{not json`,
		`{"exercise_id":"pull_up","date":"2026-01-06","bodyweight_kg":80,"variant":"pronated","session_type":"MAX"}`,
		`{"exercise_id":"pull_up","date":"2026-13-01","bodyweight_kg":80,"variant":"pronated","session_type":"S"}`,
		`{"exercise_id":"pull_up","date":"2026-01-07","bodyweight_kg":-1,"variant":"pronated","session_type":"H"}`,
		`{"exercise_id":"pull_up","date":"2026-01-05","bodyweight_kg":81,"variant":"pronated","session_type":"S"}`,
	}, "\n")

	check := func(sess types.Session) error {
		if sess.BodyweightKg <= 0 {
			return fmt.Errorf("bodyweight_kg must be positive")
		}
		return nil
	}

	res, err := s.ImportJSONL(ctx, strings.NewReader(input), check)
	if err != nil {
		t.Fatalf("ImportJSONL() error: %v", err)
	}
	if res.Imported != 1 || res.Replaced != 1 || res.Rejected != 4 {
		t.Errorf("ImportJSONL() = %+v, want 1 imported, 1 replaced, 4 rejected", res)
	}
	if len(res.Errors) != 4 || !strings.HasPrefix(res.Errors[0], "line 3:") {
		t.Errorf("Errors = %v", res.Errors)
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Sessions != 0 || empty.FirstDate != nil {
		t.Errorf("empty Stats() = %+v", empty)
	}

	for _, in := range []types.Session{
		session("pull_up", "2026-01-05", types.SessionStrength, 5, 5),
		session("pull_up", "2026-01-09", types.SessionEndurance, 4),
		session("dip", "2026-01-07", types.SessionStrength, 6),
	} {
		if _, err := s.UpsertSession(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sessions != 3 || stats.Sets != 8 {
		t.Errorf("Stats() sessions=%d sets=%d, want 3 and 8", stats.Sessions, stats.Sets)
	}
	if diff := cmp.Diff(map[string]int64{"pull_up": 2, "dip": 1}, stats.ByExercise); diff != "" {
		t.Errorf("ByExercise mismatch (-want +got):\n%s", diff)
	}
	if stats.FirstDate.String() != "2026-01-05" || stats.LastDate.String() != "2026-01-09" {
		t.Errorf("date range = %s..%s", stats.FirstDate, stats.LastDate)
	}
}
