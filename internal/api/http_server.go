package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"geocms/internal/config"
	"geocms/internal/database"
	"geocms/internal/domain"
	"geocms/internal/export"
	"geocms/internal/metrics"
	"geocms/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the portal's JSON API.
type HTTPServer struct {
	cfg          config.HTTPConfig
	sessions     domain.SessionManager
	users        domain.UserService
	borrows      domain.BorrowService
	reservations domain.ReservationService
	issues       domain.IssueService
	repo         domain.Repository
	sessionStore domain.SessionRepository
	exporter     *export.Exporter
	logger       *zerolog.Logger
	limiter      *rateLimiter
	server       *http.Server
}

// Deps carries everything the HTTP server needs.
type Deps struct {
	Sessions     domain.SessionManager
	Users        domain.UserService
	Borrows      domain.BorrowService
	Reservations domain.ReservationService
	Issues       domain.IssueService
	Repo         domain.Repository
	SessionStore domain.SessionRepository
	Exporter     *export.Exporter
}

func NewHTTPServer(cfg config.HTTPConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		sessions:     deps.Sessions,
		users:        deps.Users,
		borrows:      deps.Borrows,
		reservations: deps.Reservations,
		issues:       deps.Issues,
		repo:         deps.Repo,
		sessionStore: deps.SessionStore,
		exporter:     deps.Exporter,
		logger:       logger,
		limiter:      newRateLimiter(cfg.RateLimit),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/v1/login", srv.handleLogin)
	mux.HandleFunc("/api/v1/logout", srv.handleLogout)
	mux.HandleFunc("/api/v1/me", srv.handleMe)
	mux.HandleFunc("/api/v1/items", srv.handleItems)
	mux.HandleFunc("/api/v1/labs", srv.handleLabs)
	mux.HandleFunc("/api/v1/labs/", srv.handleLabAvailability)
	mux.HandleFunc("/api/v1/borrows", srv.handleBorrows)
	mux.HandleFunc("/api/v1/borrows/", srv.handleBorrowAction)
	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationAction)
	mux.HandleFunc("/api/v1/issues", srv.handleIssues)
	mux.HandleFunc("/api/v1/issues/", srv.handleIssueAction)
	mux.HandleFunc("/api/v1/exports/reservations", srv.handleExportReservations)
	mux.HandleFunc("/api/v1/exports/ledger", srv.handleExportLedger)

	handler := srv.loggingMiddleware(srv.limiter.wrap(srv.sessionMiddleware(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler exposes the middleware-wrapped root handler for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// writeServiceError maps domain errors onto HTTP statuses. Unexpected
// errors are logged and surfaced as a generic 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountDisabled):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, database.ErrOverlap),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrConcurrentModification),
		errors.Is(err, database.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar),
		errors.Is(err, database.ErrInvalidTimeWindow),
		errors.Is(err, database.ErrInvalidQuantity),
		errors.Is(err, database.ErrInvalidCondition),
		errors.Is(err, database.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// splitAction parses "{id}" or "{id}/{action}" out of a path after the
// given prefix.
func splitAction(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return 0, "", fmt.Errorf("missing id")
	}

	parts := strings.SplitN(rest, "/", 2)
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid id")
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseDateParam(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
