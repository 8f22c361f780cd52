package api

import "net/http"

// handleHealth reports service liveness along with fleet counts.
//
// GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"printers":   stats.Total,
		"monitoring": s.monitor.IsRunning(),
	})
}
