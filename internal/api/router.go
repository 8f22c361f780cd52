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

		// Printer endpoints
		r.Route("/printers", func(r chi.Router) {
			r.Get("/", s.handleListPrinters)
			r.Post("/", s.handleAddPrinter)
			r.Get("/stats", s.handlePrinterStats)
			r.Post("/check", s.handleCheckAllPrinters)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPrinter)
				r.Delete("/", s.handleRemovePrinter)
				r.Post("/check", s.handleCheckPrinter)
				r.Get("/history", s.handlePrinterHistory)
				r.Get("/errors", s.handlePrinterErrors)
				r.Post("/errors/{code}/resolve", s.handleResolveError)
			})
		})

		// Monitoring control
		r.Route("/monitor", func(r chi.Router) {
			r.Get("/", s.handleMonitorStatus)
			r.Post("/start", s.handleStartMonitoring)
			r.Post("/stop", s.handleStopMonitoring)
		})
	})

	return r
}
