package api

import "net/http"

type submitReservationRequest struct {
	LabID     int64  `json:"lab_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Purpose   string `json:"purpose"`
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitReservation(w, r)
	case http.MethodGet:
		s.listReservations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) submitReservation(w http.ResponseWriter, r *http.Request) {
	var req submitReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	created, err := s.reservations.SubmitRequest(r.Context(), sessionFrom(r),
		req.LabID, date, req.StartTime, req.EndTime, req.Purpose)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.reservations.List(r.Context(), sessionFrom(r), r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

// handleReservationAction serves /api/v1/reservations/{id} and
// /api/v1/reservations/{id}/{approve|reject|cancel|complete}.
func (s *HTTPServer) handleReservationAction(w http.ResponseWriter, r *http.Request) {
	id, action, err := splitAction(r.URL.Path, "/api/v1/reservations/")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		reservation, err := s.reservations.Get(r.Context(), sessionFrom(r), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reservation)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := sessionFrom(r)
	switch action {
	case "approve":
		err = s.reservations.Approve(r.Context(), session, id, req.Version)
	case "reject":
		err = s.reservations.Reject(r.Context(), session, id, req.Version, req.Reason)
	case "cancel":
		err = s.reservations.Cancel(r.Context(), session, id, req.Version)
	case "complete":
		err = s.reservations.Complete(r.Context(), session, id, req.Version)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	reservation, err := s.reservations.Get(r.Context(), session, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}
