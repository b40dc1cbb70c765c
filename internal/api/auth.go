package api

import (
	"context"
	"net/http"
	"strings"

	"geocms/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "session"

// publicPaths are reachable without a session token.
var publicPaths = map[string]bool{
	"/healthz":      true,
	"/api/v1/login": true,
}

// sessionMiddleware resolves the bearer token into a session and stores
// it on the request context. Requests without a valid session are
// rejected with 401 unless the path is public.
func (s *HTTPServer) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		session, err := s.sessions.Resolve(r.Context(), token)
		if err != nil {
			s.logger.Error().Err(err).Msg("session lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if session == nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.Header.Get("X-Session-Token")
}

// sessionFrom returns the authenticated session stored by the middleware.
func sessionFrom(r *http.Request) *models.Session {
	session, _ := r.Context().Value(sessionContextKey).(*models.Session)
	return session
}
