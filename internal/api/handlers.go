package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/maxest"
	"github.com/hyperengineering/ascent/internal/model"
	"github.com/hyperengineering/ascent/internal/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler implements the API handlers
type Handler struct {
	resolver AthleteResolver
	catalog  *exercise.Catalog
	params   model.Params
	apiKey   string
	version  string
}

// NewHandler creates a new Handler. An empty apiKey disables authentication.
func NewHandler(resolver AthleteResolver, catalog *exercise.Catalog, params model.Params, apiKey, version string) *Handler {
	return &Handler{
		resolver: resolver,
		catalog:  catalog,
		params:   params,
		apiKey:   apiKey,
		version:  version,
	}
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Exercises int    `json:"exercises"`
}

// SessionsResponse is the body of GET /athletes/{athlete}/sessions.
type SessionsResponse struct {
	Sessions []types.Session `json:"sessions"`
	Total    int             `json:"total"`
}

// PlanResponse is the body of GET /athletes/{athlete}/plan.
type PlanResponse struct {
	ExerciseID string              `json:"exercise_id"`
	Start      types.Date          `json:"start"`
	Weeks      int                 `json:"weeks"`
	Sessions   []types.SessionPlan `json:"sessions"`
}

// EstimateRequest is the body of POST /api/v1/estimate.
type EstimateRequest struct {
	CompletedSets []types.Set `json:"completed_sets"`
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Exercises: len(h.catalog.IDs()),
	})
}

// ListExercises handles GET /api/v1/exercises
func (h *Handler) ListExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

// ListSessions handles GET /api/v1/athletes/{athlete}/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	a := MustAthleteFromContext(r.Context())

	exerciseID := r.URL.Query().Get("exercise")
	if exerciseID != "" {
		if _, err := h.catalog.Get(exerciseID); err != nil {
			MapError(w, r, err)
			return
		}
	}

	sessions, err := a.Store.ListSessions(r.Context(), exerciseID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []types.Session{}
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions, Total: len(sessions)})
}

// LogSession handles POST /api/v1/athletes/{athlete}/sessions. A new
// session answers 201; replacing the session in the same slot answers 200.
func (h *Handler) LogSession(w http.ResponseWriter, r *http.Request) {
	a := MustAthleteFromContext(r.Context())

	var s types.Session
	if !decodeBody(w, r, &s) {
		return
	}
	def, err := h.catalog.Get(s.ExerciseID)
	if err != nil {
		MapError(w, r, err)
		return
	}

	result, err := a.LogSession(r.Context(), s, def, h.params)
	if err != nil {
		MapError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replaced {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// DeleteSession handles DELETE /api/v1/athletes/{athlete}/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	a := MustAthleteFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := a.Store.DeleteSession(r.Context(), id); err != nil {
		MapError(w, r, err)
		return
	}

	slog.Info("session deleted",
		"component", "api",
		"action", "delete_session",
		"athlete_id", a.ID,
		"session_id", id,
	)
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/v1/athletes/{athlete}/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	a := MustAthleteFromContext(r.Context())

	def, ok := h.requireExercise(w, r)
	if !ok {
		return
	}
	asOf, err := parseOptionalDate(r, "as_of")
	if err != nil {
		MapError(w, r, err)
		return
	}

	status, err := a.Status(r.Context(), def, asOf, h.params)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Plan handles GET /api/v1/athletes/{athlete}/plan
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	a := MustAthleteFromContext(r.Context())

	def, ok := h.requireExercise(w, r)
	if !ok {
		return
	}
	start, err := parseOptionalDate(r, "start")
	if err != nil {
		MapError(w, r, err)
		return
	}
	weeks := h.params.Planner.DefaultWeeks
	if v := r.URL.Query().Get("weeks"); v != "" {
		weeks, err = strconv.Atoi(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("weeks must be an integer, got %q", v))
			return
		}
	}

	plans, err := a.Plan(r.Context(), def, start, weeks, h.params)
	if err != nil {
		MapError(w, r, err)
		return
	}

	resp := PlanResponse{ExerciseID: def.ID, Start: start, Weeks: weeks, Sessions: plans}
	if len(plans) > 0 && start.IsZero() {
		resp.Start = plans[0].Date
	}
	writeJSON(w, http.StatusOK, resp)
}

// Estimate handles POST /api/v1/estimate
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	est, err := maxest.Estimate(req.CompletedSets, h.params.Estimator)
	if err != nil {
		if errors.Is(err, maxest.ErrInsufficientData) {
			WriteProblem(w, r, http.StatusUnprocessableEntity, "At least two performed sets are required")
			return
		}
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// requireExercise resolves the mandatory exercise query parameter.
func (h *Handler) requireExercise(w http.ResponseWriter, r *http.Request) (exercise.Definition, bool) {
	id := r.URL.Query().Get("exercise")
	if id == "" {
		WriteProblem(w, r, http.StatusBadRequest, "exercise query parameter is required")
		return exercise.Definition{}, false
	}
	def, err := h.catalog.Get(id)
	if err != nil {
		MapError(w, r, err)
		return exercise.Definition{}, false
	}
	return def, true
}

func parseOptionalDate(r *http.Request, param string) (types.Date, error) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return types.Date{}, nil
	}
	d, err := types.ParseDate(v)
	if err != nil {
		return types.Date{}, fmt.Errorf("%s: %w", param, err)
	}
	return d, nil
}

// decodeBody decodes a JSON request body, writing a 400 problem on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}
