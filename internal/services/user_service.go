package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// UserService exposes the user directory.
type UserService struct {
	store *repository.Store
}

// NewUserService creates a new UserService
func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store}
}

// ListUsers searches users by username, email, or name.
func (s *UserService) ListUsers(ctx context.Context, search string, page utils.PaginationParams) ([]models.User, int64, error) {
	users, total, err := s.store.WithContext(ctx).Users.List(search, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser returns one user.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	return findUser(s.store.WithContext(ctx), id)
}
