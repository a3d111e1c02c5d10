package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// CommentService handles comments on tasks.
type CommentService struct {
	store *repository.Store
}

// NewCommentService creates a new CommentService
func NewCommentService(store *repository.Store) *CommentService {
	return &CommentService{store: store}
}

// ListComments lists the comments of a task the actor can read.
func (s *CommentService) ListComments(ctx context.Context, actor authz.Actor, taskID uint64) ([]models.Comment, error) {
	store := s.store.WithContext(ctx)
	task, err := loadTask(store, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessTaskChildren(actor, task).Err(authz.ResourceComment, authz.ActionRead); err != nil {
		return nil, err
	}

	comments, err := store.Comments.ListByTask(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// CreateComment adds a comment by actor to the task.
func (s *CommentService) CreateComment(ctx context.Context, actor authz.Actor, taskID uint64, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, invalidField("body", "this field is required")
	}

	var comment *models.Comment
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := authz.CanAccessTaskChildren(actor, task).Err(authz.ResourceComment, authz.ActionCreate); err != nil {
			return err
		}

		comment = &models.Comment{Body: body, AuthorID: actor.ID, TaskID: task.ID}
		if err := tx.Comments.Create(comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return recordActivity(tx, actor.ID, fmt.Sprintf("commented on task '%s'", task.Title), task.ProjectID, &task.ID)
	})
	if err != nil {
		return nil, err
	}
	return loadComment(s.store.WithContext(ctx), taskID, comment.ID)
}

// GetComment returns one comment of a task.
func (s *CommentService) GetComment(ctx context.Context, actor authz.Actor, taskID, commentID uint64) (*models.Comment, error) {
	store := s.store.WithContext(ctx)
	task, comment, err := s.load(store, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckTaskChild(actor, task, comment, authz.ActionRead).Err(authz.ResourceComment, authz.ActionRead); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment replaces the body. Only the author may edit.
func (s *CommentService) UpdateComment(ctx context.Context, actor authz.Actor, taskID, commentID uint64, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, invalidField("body", "this field is required")
	}

	var comment *models.Comment
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		task, found, err := s.load(tx, taskID, commentID)
		if err != nil {
			return err
		}
		if err := authz.CheckTaskChild(actor, task, found, authz.ActionUpdate).Err(authz.ResourceComment, authz.ActionUpdate); err != nil {
			return err
		}

		found.Body = body
		if err := tx.Comments.Update(found); err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		comment = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment. The project owner or the author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, actor authz.Actor, taskID, commentID uint64) error {
	return s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		task, comment, err := s.load(tx, taskID, commentID)
		if err != nil {
			return err
		}
		if err := authz.CheckTaskChild(actor, task, comment, authz.ActionDelete).Err(authz.ResourceComment, authz.ActionDelete); err != nil {
			return err
		}
		if err := tx.Comments.Delete(comment.ID); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return nil
	})
}

func (s *CommentService) load(store *repository.Store, taskID, commentID uint64) (*models.Task, *models.Comment, error) {
	task, err := loadTask(store, taskID)
	if err != nil {
		return nil, nil, err
	}
	comment, err := loadComment(store, task.ID, commentID)
	if err != nil {
		return nil, nil, err
	}
	return task, comment, nil
}

func loadComment(store *repository.Store, taskID, id uint64) (*models.Comment, error) {
	comment, err := store.Comments.FindByTask(taskID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return comment, nil
}
