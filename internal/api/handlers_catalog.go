package api

import (
	"net/http"
	"strings"
)

func (s *HTTPServer) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	items, err := s.repo.GetActiveItems(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleLabs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	labs, err := s.repo.GetActiveLabs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, labs)
}

// handleLabAvailability serves GET /api/v1/labs/{id}/availability?date=.
func (s *HTTPServer) handleLabAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	labID, action, err := splitAction(r.URL.Path, "/api/v1/labs/")
	if err != nil || action != "availability" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	date, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	windows, err := s.reservations.Availability(r.Context(), labID, date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lab_id":  labID,
		"date":    strings.TrimSpace(r.URL.Query().Get("date")),
		"windows": windows,
	})
}
