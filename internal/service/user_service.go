package service

import (
	"context"
	"errors"
	"fmt"

	"geocms/internal/config"
	"geocms/internal/database"
	"geocms/internal/domain"
	"geocms/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// Bootstrap upserts the accounts declared in the config file. Plaintext
// passwords are hashed here; existing accounts keep their stored hash.
func (s *UserService) Bootstrap(ctx context.Context, users []config.BootstrapUser) error {
	for _, u := range users {
		hash := u.PasswordHash
		if hash == "" && u.Password != "" {
			raw, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", u.Username, err)
			}
			hash = string(raw)
		}

		user := &models.User{
			Username:     u.Username,
			Name:         u.Name,
			Email:        u.Email,
			Role:         u.Role,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := s.repo.CreateOrUpdateUser(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// Authenticate checks a username/password pair. Unknown users and bad
// passwords return the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.repo.UpdateUserActivity(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to update user activity")
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// Technicians lists the active staff accounts issues can be assigned to.
func (s *UserService) Technicians(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetUsersByRole(ctx, models.RoleStaff)
}
