package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizforge/quiz-service/internal/models"
	"github.com/quizforge/quiz-service/internal/repositories"
)

type userService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewUserService(repo repositories.Repository, logger *slog.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger,
	}
}

// Ensure persists the identity pushed by the auth collaborator so that
// domain rows created for this caller have a users row to reference.
// Repeated calls refresh display data for an existing id.
func (s *userService) Ensure(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return ErrUserNotFound
	}

	user.IsActive = true
	if err := s.repo.User().Upsert(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
