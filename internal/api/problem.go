package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/ascent/internal/athlete"
	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/metrics"
	"github.com/hyperengineering/ascent/internal/planner"
	"github.com/hyperengineering/ascent/internal/store"
	"github.com/hyperengineering/ascent/internal/types"
	"github.com/hyperengineering/ascent/internal/validation"
)

// problemTypeBase prefixes every problem type URI.
const problemTypeBase = "https://ascent.hyperengineering.dev/errors/"

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: problemTypeBase + "unauthorized",
		title:   "Unauthorized",
	},
	http.StatusBadRequest: {
		typeURI: problemTypeBase + "bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: problemTypeBase + "not-found",
		title:   "Not Found",
	},
	http.StatusInternalServerError: {
		typeURI: problemTypeBase + "internal-error",
		title:   "Internal Server Error",
	},
	http.StatusUnprocessableEntity: {
		typeURI: problemTypeBase + "validation-error",
		title:   "Validation Error",
	},
	http.StatusConflict: {
		typeURI: problemTypeBase + "conflict",
		title:   "Conflict",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: problemTypeBase + "unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses. Client
// errors carry the error text; anything else is logged and reported as 500.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		WriteProblemWithErrors(w, r, "Request contains invalid fields", verrs)
	case errors.Is(err, metrics.ErrInsufficientData):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Not enough history or baseline to compute this: "+err.Error())
	case errors.Is(err, store.ErrInvalidSession):
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, planner.ErrInvalidRequest),
		errors.Is(err, types.ErrInvalidDate),
		errors.Is(err, types.ErrUnknownEnum),
		errors.Is(err, athlete.ErrInvalidAthleteID):
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, exercise.ErrUnknownExercise):
		WriteProblem(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, athlete.ErrAthleteNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Athlete not found")
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, athlete.ErrAthleteAlreadyExists):
		WriteProblem(w, r, http.StatusConflict, "Athlete already exists")
	default:
		slog.Error("request failed",
			"component", "api",
			"path", r.URL.Path,
			"athlete_id", AthleteIDFromContext(r.Context()),
			"error", err,
		)
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
