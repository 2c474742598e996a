package e2e

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/hyperengineering/ascent/internal/types"
)

func TestAthleteIsolation(t *testing.T) {
	mgr, router := setupInProcess(t)
	ctx := context.Background()

	for _, id := range []string{"alex", "sam"} {
		if _, err := mgr.Create(ctx, id, types.Profile{BodyweightKg: 75, DaysPerWeek: 3}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	w := do(t, router, http.MethodPost, "/api/v1/athletes/alex/sessions", sessionJSON("2026-01-02", "TEST", 75, 14))
	if w.Code != http.StatusCreated {
		t.Fatalf("log alex: status %d: %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodPost, "/api/v1/athletes/sam/sessions", sessionJSON("2026-01-02", "TEST", 75, 6))
	if w.Code != http.StatusCreated {
		t.Fatalf("log sam: status %d: %s", w.Code, w.Body.String())
	}

	for id, wantMax := range map[string]int{"alex": 14, "sam": 6} {
		w := do(t, router, http.MethodGet, "/api/v1/athletes/"+id+"/status?exercise=pull_up", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status %s: %d: %s", id, w.Code, w.Body.String())
		}
		var st types.TrainingStatus
		decodeBody(t, w.Body, &st)
		if st.LatestTestMax == nil || *st.LatestTestMax != wantMax {
			t.Errorf("%s latest test max = %v, want %d", id, st.LatestTestMax, wantMax)
		}
	}

	w = do(t, router, http.MethodGet, "/api/v1/athletes/nobody/sessions", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown athlete: status %d, want 404", w.Code)
	}
}

func TestTrainingCycle(t *testing.T) {
	_, router := setupInProcess(t)

	// TEST, then a week of training at the planned prescription
	do(t, router, http.MethodPost, "/api/v1/athletes/default/sessions", sessionJSON("2026-01-02", "TEST", 80, 10))

	w := do(t, router, http.MethodGet, "/api/v1/athletes/default/plan?exercise=pull_up&weeks=1&start=2026-01-05", "")
	if w.Code != http.StatusOK {
		t.Fatalf("plan: status %d: %s", w.Code, w.Body.String())
	}
	var plan struct {
		Sessions []types.SessionPlan `json:"sessions"`
	}
	decodeBody(t, w.Body, &plan)
	if len(plan.Sessions) != 3 {
		t.Fatalf("plan sessions = %d, want 3", len(plan.Sessions))
	}

	for _, p := range plan.Sessions {
		s := p.AsSession(80)
		for _, ps := range s.PlannedSets {
			reps := ps.TargetReps
			set := ps
			set.ActualReps = &reps
			s.CompletedSets = append(s.CompletedSets, set)
		}
		body, err := jsonString(s)
		if err != nil {
			t.Fatal(err)
		}
		if w := do(t, router, http.MethodPost, "/api/v1/athletes/default/sessions", body); w.Code != http.StatusCreated {
			t.Fatalf("log planned session %s: status %d: %s", p.Date, w.Code, w.Body.String())
		}
	}

	w = do(t, router, http.MethodGet, "/api/v1/athletes/default/status?exercise=pull_up", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d: %s", w.Code, w.Body.String())
	}
	var st types.TrainingStatus
	decodeBody(t, w.Body, &st)
	if st.ComplianceRatio < 0.99 {
		t.Errorf("compliance = %v, want full compliance after following the plan", st.ComplianceRatio)
	}
	if st.DeloadRecommended {
		t.Errorf("deload recommended after following the plan: %v", st.DeloadReasons)
	}
	if !st.AsOf.Equal(plan.Sessions[2].Date) {
		t.Errorf("as_of = %s, want last logged date %s", st.AsOf, plan.Sessions[2].Date)
	}

	// Regenerating from the same history is deterministic
	first := do(t, router, http.MethodGet, "/api/v1/athletes/default/plan?exercise=pull_up&weeks=2&start=2026-01-12", "").Body.String()
	second := do(t, router, http.MethodGet, "/api/v1/athletes/default/plan?exercise=pull_up&weeks=2&start=2026-01-12", "").Body.String()
	if first != second {
		t.Error("plan changed between identical requests")
	}

	var next struct {
		Sessions []types.SessionPlan `json:"sessions"`
	}
	decodeBody(t, bytes.NewBufferString(first), &next)
	for _, p := range next.Sessions {
		if p.Deload {
			t.Errorf("next plan deloads %s on %s after a completed week", p.SessionType, p.Date)
		}
	}
}
