package service

import (
	"context"
	"time"

	"geocms/internal/domain"
	"geocms/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionService issues opaque tokens and resolves them back to sessions.
type SessionService struct {
	sessionRepo domain.SessionRepository
	logger      *zerolog.Logger
}

func NewSessionService(sessionRepo domain.SessionRepository, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

func (s *SessionService) Create(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.SetSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to store session")
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.GetSession(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve session")
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Destroy(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteSession(ctx, token)
}
