package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/printwatch-core/internal/printer"
)

// handleListPrinters returns all registered printers.
//
// GET /api/v1/printers
func (s *Server) handleListPrinters(w http.ResponseWriter, r *http.Request) {
	printers, err := s.registry.List(r.Context())
	if err != nil {
		s.logger.Error("listing printers", "error", err)
		writeInternalError(w, "failed to list printers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"printers": printers,
		"count":    len(printers),
	})
}

// handleAddPrinter registers a new printer.
//
// POST /api/v1/printers
// Body: {"name": "...", "location": "...", "model": "...", "address": "..."}
func (s *Server) handleAddPrinter(w http.ResponseWriter, r *http.Request) {
	var cfg printer.AddConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.Add(r.Context(), cfg)
	if err != nil {
		switch {
		case errors.Is(err, printer.ErrInvalidName), errors.Is(err, printer.ErrInvalidAddress):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, printer.ErrPrinterExists):
			writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			s.logger.Error("adding printer", "error", err)
			writeInternalError(w, "failed to add printer")
		}
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleGetPrinter returns a single printer with history and error ledger.
//
// GET /api/v1/printers/{id}
func (s *Server) handleGetPrinter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, printer.ErrPrinterNotFound) {
			writeNotFound(w, "printer not found")
			return
		}
		s.logger.Error("getting printer", "printer_id", id, "error", err)
		writeInternalError(w, "failed to get printer")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleRemovePrinter deletes a printer with its history and ledger.
//
// DELETE /api/v1/printers/{id}
func (s *Server) handleRemovePrinter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.Remove(r.Context(), id); err != nil {
		if errors.Is(err, printer.ErrPrinterNotFound) {
			writeNotFound(w, "printer not found")
			return
		}
		s.logger.Error("removing printer", "printer_id", id, "error", err)
		writeInternalError(w, "failed to remove printer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCheckPrinter runs one on-demand check and returns the updated
// printer.
//
// POST /api/v1/printers/{id}/check
func (s *Server) handleCheckPrinter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.checker.CheckDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, printer.ErrPrinterNotFound) {
			writeNotFound(w, "printer not found")
			return
		}
		s.logger.Error("checking printer", "printer_id", id, "error", err)
		writeInternalError(w, "failed to check printer")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCheckAllPrinters runs one check cycle over every printer and
// returns the updated records.
//
// POST /api/v1/printers/check
func (s *Server) handleCheckAllPrinters(w http.ResponseWriter, r *http.Request) {
	devices := s.checker.CheckAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"printers": devices,
		"count":    len(devices),
	})
}

// handlePrinterHistory returns the retained status history, oldest
// first. The optional limit query parameter caps the number of entries.
//
// GET /api/v1/printers/{id}/history?limit=N
func (s *Server) handlePrinterHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.registry.History(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, printer.ErrPrinterNotFound) {
			writeNotFound(w, "printer not found")
			return
		}
		s.logger.Error("getting history", "printer_id", id, "error", err)
		writeInternalError(w, "failed to get history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history": entries,
		"count":   len(entries),
	})
}

// handlePrinterErrors returns the error ledger. With ?unresolved=true
// only open entries are returned.
//
// GET /api/v1/printers/{id}/errors
func (s *Server) handlePrinterErrors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.registry.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, printer.ErrPrinterNotFound) {
			writeNotFound(w, "printer not found")
			return
		}
		s.logger.Error("getting printer errors", "printer_id", id, "error", err)
		writeInternalError(w, "failed to get errors")
		return
	}

	entries := d.Errors
	if r.URL.Query().Get("unresolved") == "true" {
		open := make([]printer.ErrorCodeEntry, 0, len(entries))
		for _, e := range entries {
			if !e.Resolved {
				open = append(open, e)
			}
		}
		entries = open
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"errors": entries,
		"count":  len(entries),
	})
}

// handleResolveError marks an error code resolved. Resolving a code
// with no open entry is a no-op and still returns the printer.
//
// POST /api/v1/printers/{id}/errors/{code}/resolve
func (s *Server) handleResolveError(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	code := chi.URLParam(r, "code")

	d, err := s.registry.ResolveError(r.Context(), id, code)
	if err != nil {
		if errors.Is(err, printer.ErrPrinterNotFound) {
			writeNotFound(w, "printer not found")
			return
		}
		s.logger.Error("resolving error", "printer_id", id, "code", code, "error", err)
		writeInternalError(w, "failed to resolve error")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handlePrinterStats returns aggregate counts over all printers.
//
// GET /api/v1/printers/stats
func (s *Server) handlePrinterStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.GetStats())
}
