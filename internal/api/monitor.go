package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/printwatch-core/internal/monitor"
)

// startMonitoringRequest is the optional body for POST /monitor/start.
// A zero or omitted interval falls back to the default.
type startMonitoringRequest struct {
	IntervalMs int64 `json:"interval_ms"`
}

// monitorState is the wire form of the monitoring loop status.
type monitorState struct {
	Running    bool  `json:"running"`
	IntervalMs int64 `json:"interval_ms"`
}

// handleMonitorStatus reports whether the background loop is running
// and at what interval.
//
// GET /api/v1/monitor
func (s *Server) handleMonitorStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, monitorState{
		Running:    s.monitor.IsRunning(),
		IntervalMs: s.monitor.Interval().Milliseconds(),
	})
}

// handleStartMonitoring starts the background check loop. Calling it
// while the loop is already running restarts it with the new interval.
//
// POST /api/v1/monitor/start
// Body (optional): {"interval_ms": 30000}
func (s *Server) handleStartMonitoring(w http.ResponseWriter, r *http.Request) {
	var req startMonitoringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.IntervalMs < 0 {
		writeBadRequest(w, "interval_ms must not be negative")
		return
	}

	interval := time.Duration(req.IntervalMs) * time.Millisecond
	if interval == 0 {
		interval = monitor.DefaultInterval
	}

	s.monitor.Start(interval)
	s.logger.Info("monitoring started", "interval", interval)

	writeJSON(w, http.StatusOK, monitorState{
		Running:    true,
		IntervalMs: interval.Milliseconds(),
	})
}

// handleStopMonitoring stops the background check loop. Stopping an
// idle loop is a no-op.
//
// POST /api/v1/monitor/stop
func (s *Server) handleStopMonitoring(w http.ResponseWriter, _ *http.Request) {
	s.monitor.Stop()
	s.logger.Info("monitoring stopped")

	writeJSON(w, http.StatusOK, monitorState{Running: false})
}
