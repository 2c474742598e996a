package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyperengineering/ascent/internal/athlete"
)

// requestScope collects request facts discovered by inner handlers so the
// outer request log line can report them.
type requestScope struct {
	athleteID string
}

type requestScopeKey struct{}

func withRequestScope(ctx context.Context) (context.Context, *requestScope) {
	scope := &requestScope{}
	return context.WithValue(ctx, requestScopeKey{}, scope), scope
}

func requestScopeFrom(ctx context.Context) *requestScope {
	scope, _ := ctx.Value(requestScopeKey{}).(*requestScope)
	return scope
}

// requestAttrs returns the log attributes that identify a request: its ID,
// method and path, and the athlete once one has been resolved.
func requestAttrs(r *http.Request) []any {
	attrs := []any{
		"component", "api",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	}
	if id, ok := r.Context().Value(athleteIDContextKey{}).(string); ok && id != "" {
		return append(attrs, "athlete_id", id)
	}
	if scope := requestScopeFrom(r.Context()); scope != nil && scope.athleteID != "" {
		return append(attrs, "athlete_id", scope.athleteID)
	}
	return attrs
}

// bearerToken returns the credentials of a Bearer Authorization header, or ""
// when the header is missing or uses another scheme. The scheme name is
// case-insensitive.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// keyMatches compares a presented token with the configured key in constant
// time. An empty token never matches.
func keyMatches(token, apiKey string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) == 1
}

// AuthMiddleware requires a Bearer token equal to apiKey and answers 401
// problem+json otherwise. The key never appears in logs or responses.
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if !keyMatches(token, apiKey) {
				reason := "invalid_key"
				if token == "" {
					reason = "missing_key"
				}
				slog.Warn("auth failure", append(requestAttrs(r),
					"action", "auth_failed",
					"reason", reason,
					"remote_ip", r.RemoteAddr,
				)...)
				WriteProblem(w, r, http.StatusUnauthorized, "Missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AthleteResolver opens athletes by ID.
type AthleteResolver interface {
	Open(ctx context.Context, id string) (*athlete.Athlete, error)
}

// AthleteMiddleware resolves the {athlete} URL parameter and attaches the
// athlete and its ID to the request context. Unknown or malformed IDs are
// answered with a problem response.
func AthleteMiddleware(resolver AthleteResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "athlete")
			if scope := requestScopeFrom(r.Context()); scope != nil {
				scope.athleteID = id
			}
			a, err := resolver.Open(r.Context(), id)
			if err != nil {
				MapError(w, r, err)
				return
			}
			ctx := WithAthleteID(WithAthlete(r.Context(), a), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs one line per request once it completes. Server
// errors log at error level and client errors at warn.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, _ := withRequestScope(r.Context())
		r = r.WithContext(ctx)
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		level := slog.LevelInfo
		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			level = slog.LevelError
		case wrapped.statusCode >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "request", append(requestAttrs(r),
			"status", wrapped.statusCode,
			"bytes", wrapped.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)...)
	})
}

// responseWriter records the status code and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// RecoveryMiddleware turns a handler panic into a 500 problem response. The
// panic value and stack go to the log only.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered", append(requestAttrs(r),
					"action", "panic",
					"error", recovered,
					"stack", string(debug.Stack()),
				)...)
				WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
