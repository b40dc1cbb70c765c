package repository

import (
	"context"
	"sync/atomic"
	"time"

	"geocms/internal/domain"
	"geocms/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository keeps the portal usable when Redis is down by
// falling back to in-memory sessions. Sessions created during an outage are
// lost when the process exits; that is an accepted trade-off.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) shouldRetryPrimary() bool {
	// Probe the primary again after a minute of outage.
	return time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, token)
		if err == nil {
			return session, nil
		}
		r.markDown(err)
	} else if r.shouldRetryPrimary() {
		session, err := r.primary.GetSession(ctx, token)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSession(ctx, token)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, session)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSession(ctx, session)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, token string) error {
	// Delete from both so a recovered primary cannot resurrect a session
	// that was logged out during an outage.
	var primaryErr error
	if !r.isDown.Load() {
		primaryErr = r.primary.DeleteSession(ctx, token)
		if primaryErr != nil {
			r.markDown(primaryErr)
		}
	}
	return r.fallback.DeleteSession(ctx, token)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		ok, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return ok, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
