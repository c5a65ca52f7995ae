package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// WebSocket upgrade. Browsers cannot set an Authorization header on
		// a WebSocket dial, so auth is a single-use ticket minted by the
		// protected /auth/ws-ticket endpoint and validated in the handler.
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires a logged-in operator
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Collaborator directory
			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleEnrollUser)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.Patch("/", s.handleUpdateUser)
					r.Delete("/", s.handleDeleteUser)
					r.Put("/status", s.handleSetUserStatus)
				})
			})

			// Manual scan from the operator console
			r.Post("/scan", s.handleScan)

			// Dashboard queries
			r.Get("/inside", s.handleInside)
			r.Get("/events/recent", s.handleRecentEvents)
			r.Get("/events/export", s.handleExport)
			r.Get("/stats/daily", s.handleDailyStats)
			r.Get("/stats/inside-count", s.handleInsideCount)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
