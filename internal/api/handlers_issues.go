package api

import "net/http"

type reportIssueRequest struct {
	LabID       int64  `json:"lab_id"`
	Computer    string `json:"computer"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type assignIssueRequest struct {
	TechnicianID int64 `json:"technician_id"`
}

type resolveIssueRequest struct {
	Note string `json:"note"`
}

type commentRequest struct {
	Body string `json:"body"`
}

type issueResponse struct {
	Issue    any `json:"issue"`
	Comments any `json:"comments"`
}

func (s *HTTPServer) handleIssues(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.reportIssue(w, r)
	case http.MethodGet:
		s.listIssues(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) reportIssue(w http.ResponseWriter, r *http.Request) {
	var req reportIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	issue, err := s.issues.Report(r.Context(), sessionFrom(r),
		req.LabID, req.Computer, req.Title, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *HTTPServer) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := s.issues.List(r.Context(), sessionFrom(r), r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// handleIssueAction serves /api/v1/issues/{id} plus the
// assign/resolve/comments subresources.
func (s *HTTPServer) handleIssueAction(w http.ResponseWriter, r *http.Request) {
	id, action, err := splitAction(r.URL.Path, "/api/v1/issues/")
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	session := sessionFrom(r)

	if action == "" {
		switch r.Method {
		case http.MethodGet:
			issue, comments, err := s.issues.Get(r.Context(), session, id)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, issueResponse{Issue: issue, Comments: comments})
		case http.MethodDelete:
			if err := s.issues.Delete(r.Context(), session, id); err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "assign":
		var req assignIssueRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.issues.Assign(r.Context(), session, id, req.TechnicianID); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	case "resolve":
		var req resolveIssueRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.issues.Resolve(r.Context(), session, id, req.Note); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	case "comments":
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		comment, err := s.issues.Comment(r.Context(), session, id, req.Body)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
		return
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	issue, comments, err := s.issues.Get(r.Context(), session, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issueResponse{Issue: issue, Comments: comments})
}
