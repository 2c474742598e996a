package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required when an API key is configured)
		r.Group(func(r chi.Router) {
			if h.apiKey != "" {
				r.Use(AuthMiddleware(h.apiKey))
			}
			r.Get("/exercises", h.ListExercises)
			r.Post("/estimate", h.Estimate)

			r.Route("/athletes/{athlete}", func(r chi.Router) {
				r.Use(AthleteMiddleware(h.resolver))
				r.Get("/sessions", h.ListSessions)
				r.Post("/sessions", h.LogSession)
				r.Delete("/sessions/{id}", h.DeleteSession)
				r.Get("/status", h.Status)
				r.Get("/plan", h.Plan)
			})
		})
	})

	return r
}
