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

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Controller-wide endpoints
		r.Route("/system", func(r chi.Router) {
			r.Get("/", s.handleGetSystem)
			r.Get("/display", s.handleGetDisplay)
			r.Patch("/display", s.handleUpdateDisplay)
			r.Get("/clock", s.handleGetClock)
			r.Put("/clock", s.handleSetClock)
			r.Post("/reset", s.handleReset)
		})

		// Module endpoints
		r.Route("/modules", func(r chi.Router) {
			r.Get("/", s.handleListModules)

			r.Route("/{uid}", func(r chi.Router) {
				r.Get("/", s.handleGetModule)
				r.Get("/attributes", s.handleListAttributes)
				r.Get("/attributes/{token}", s.handleReadAttribute)
				r.Put("/attributes/{token}", s.handleWriteAttribute)
				r.Post("/invalidate", s.handleInvalidate)
				r.Get("/signals", s.handleModuleSignals)
				r.Get("/readings", s.handleModuleReadings)
				r.Get("/readings/series", s.handleReadingSeries)
			})
		})

		// Alarm endpoints
		r.Route("/alarms", func(r chi.Router) {
			r.Get("/", s.handleLiveAlarms)
			r.Get("/history", s.handleAlarmHistory)
		})
	})

	return r
}

// handleHealth returns the server health status and instrument link state.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"instrument": string(s.driver.Status()),
	})
}
