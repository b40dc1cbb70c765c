package api

import (
	"net/http"
)

type submitBorrowRequest struct {
	ItemID    int64  `json:"item_id"`
	Quantity  int64  `json:"quantity"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

type decisionRequest struct {
	Version   int64  `json:"version"`
	Reason    string `json:"reason,omitempty"`
	Condition string `json:"condition,omitempty"`
}

func (s *HTTPServer) handleBorrows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitBorrow(w, r)
	case http.MethodGet:
		s.listBorrows(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) submitBorrow(w http.ResponseWriter, r *http.Request) {
	var req submitBorrowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	startDate, err := parseDateParam(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := parseDateParam(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	created, err := s.borrows.SubmitRequest(r.Context(), sessionFrom(r),
		req.ItemID, req.Quantity, startDate, endDate, req.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) listBorrows(w http.ResponseWriter, r *http.Request) {
	requests, err := s.borrows.List(r.Context(), sessionFrom(r), r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// handleBorrowAction serves /api/v1/borrows/{id} and
// /api/v1/borrows/{id}/{approve|reject|return|cancel}.
func (s *HTTPServer) handleBorrowAction(w http.ResponseWriter, r *http.Request) {
	id, action, err := splitAction(r.URL.Path, "/api/v1/borrows/")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		request, err := s.borrows.Get(r.Context(), sessionFrom(r), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
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
		err = s.borrows.Approve(r.Context(), session, id, req.Version)
	case "reject":
		err = s.borrows.Reject(r.Context(), session, id, req.Version, req.Reason)
	case "cancel":
		err = s.borrows.Cancel(r.Context(), session, id, req.Version)
	case "return":
		err = s.borrows.Return(r.Context(), session, id, req.Version, req.Condition)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	request, err := s.borrows.Get(r.Context(), session, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}
