package api

import (
	"net/http"
	"strings"
	"time"

	"geocms/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	// Credential attempts are throttled per username, independently of
	// the per-client API limiter.
	if s.sessionStore != nil {
		allowed, err := s.sessionStore.CheckRateLimit(r.Context(), "login:"+req.Username,
			models.DefaultLoginAttempts, time.Duration(models.DefaultRateLimitWindow)*time.Second)
		if err != nil {
			s.logger.Warn().Err(err).Msg("login rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	session, err := s.sessions.Create(r.Context(), user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    session.Token,
		UserID:   session.UserID,
		Username: session.Username,
		Name:     session.Name,
		Role:     session.Role,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.sessions.Destroy(r.Context(), bearerToken(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, sessionFrom(r))
}
