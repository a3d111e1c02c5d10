package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// NotificationService serves the per-user inbox.
type NotificationService struct {
	store *repository.Store
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(store *repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

// ListNotifications returns the actor's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, actor authz.Actor, unreadOnly bool, page utils.PaginationParams) ([]models.Notification, int64, error) {
	notifications, total, err := s.store.WithContext(ctx).Notifications.ListByRecipient(actor.ID, unreadOnly, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead marks one of the actor's notifications read. Notifications of
// other users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, actor authz.Actor, id uint64) (*models.Notification, error) {
	var notification *models.Notification
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		found, err := tx.Notifications.FindForRecipient(id, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotificationNotFound
			}
			return fmt.Errorf("failed to find notification: %w", err)
		}
		if !found.IsRead {
			if err := tx.Notifications.MarkRead(found.ID); err != nil {
				return fmt.Errorf("failed to mark notification read: %w", err)
			}
			found.IsRead = true
		}
		notification = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notification, nil
}

// MarkAllRead marks every unread notification of the actor and returns the count.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor authz.Actor) (int64, error) {
	n, err := s.store.WithContext(ctx).Notifications.MarkAllRead(actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}
