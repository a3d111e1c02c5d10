package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// ActivityService reads the activity trail. Entries are written by the
// other services as side effects.
type ActivityService struct {
	store *repository.Store
}

// NewActivityService creates a new ActivityService
func NewActivityService(store *repository.Store) *ActivityService {
	return &ActivityService{store: store}
}

// ListProjectActivity returns a project's entries, newest first.
func (s *ActivityService) ListProjectActivity(ctx context.Context, actor authz.Actor, projectID uint64, page utils.PaginationParams) ([]models.ActivityLog, int64, error) {
	store := s.store.WithContext(ctx)
	project, err := loadProject(store, projectID)
	if err != nil {
		return nil, 0, err
	}
	if err := authz.CanViewProjectActivity(actor, project).Err(authz.ResourceActivity, authz.ActionRead); err != nil {
		return nil, 0, err
	}

	entries, total, err := store.Activity.ListByProject(project.ID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, total, nil
}

// ListTaskActivity returns a task's entries, newest first.
func (s *ActivityService) ListTaskActivity(ctx context.Context, actor authz.Actor, taskID uint64, page utils.PaginationParams) ([]models.ActivityLog, int64, error) {
	store := s.store.WithContext(ctx)
	task, err := loadTask(store, taskID)
	if err != nil {
		return nil, 0, err
	}
	if err := authz.CanViewTaskActivity(actor, task).Err(authz.ResourceActivity, authz.ActionRead); err != nil {
		return nil, 0, err
	}

	entries, total, err := store.Activity.ListByTask(task.ID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, total, nil
}
