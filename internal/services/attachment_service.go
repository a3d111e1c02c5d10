package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/storage"
	"gorm.io/gorm"
)

// AttachmentService handles files uploaded to tasks.
type AttachmentService struct {
	store *repository.Store
	files storage.FileStorage
	log   *logrus.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(store *repository.Store, files storage.FileStorage, log *logrus.Logger) *AttachmentService {
	return &AttachmentService{store: store, files: files, log: log}
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	FileName    string
	Description string
	Content     io.Reader
}

// ListAttachments lists the attachments of a task the actor can read.
func (s *AttachmentService) ListAttachments(ctx context.Context, actor authz.Actor, taskID uint64) ([]models.Attachment, error) {
	store := s.store.WithContext(ctx)
	task, err := loadTask(store, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessTaskChildren(actor, task).Err(authz.ResourceAttachment, authz.ActionRead); err != nil {
		return nil, err
	}

	attachments, err := store.Attachments.ListByTask(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// CreateAttachment stores the blob and records the attachment. The blob is
// removed again if the database work fails.
func (s *AttachmentService) CreateAttachment(ctx context.Context, actor authz.Actor, taskID uint64, input UploadInput) (*models.Attachment, error) {
	if input.Content == nil {
		return nil, invalidField("file", "no file was submitted")
	}

	// existence and permission are checked before anything is written to disk
	store := s.store.WithContext(ctx)
	task, err := loadTask(store, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccessTaskChildren(actor, task).Err(authz.ResourceAttachment, authz.ActionCreate); err != nil {
		return nil, err
	}

	key, size, err := s.files.Save(ctx, input.FileName, input.Content)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return nil, invalidField("file", err.Error())
		}
		return nil, fmt.Errorf("%w: %v", ErrFileStorageUnavailable, err)
	}

	attachment := &models.Attachment{
		FileKey:      key,
		OriginalName: input.FileName,
		Size:         size,
		Description:  input.Description,
		UploaderID:   actor.ID,
		TaskID:       task.ID,
	}
	err = store.Transaction(func(tx *repository.Store) error {
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		// membership may have changed while the blob was being written
		if err := authz.CanAccessTaskChildren(actor, task).Err(authz.ResourceAttachment, authz.ActionCreate); err != nil {
			return err
		}
		if err := tx.Attachments.Create(attachment); err != nil {
			return fmt.Errorf("failed to create attachment: %w", err)
		}
		return recordActivity(tx, actor.ID, fmt.Sprintf("uploaded a file to task '%s'", task.Title), task.ProjectID, &task.ID)
	})
	if err != nil {
		if delErr := s.files.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log.WithError(delErr).WithField("file_key", key).Error("Failed to remove orphaned upload")
		}
		return nil, err
	}
	return loadAttachment(store, task.ID, attachment.ID)
}

// GetAttachment returns one attachment of a task.
func (s *AttachmentService) GetAttachment(ctx context.Context, actor authz.Actor, taskID, attachmentID uint64) (*models.Attachment, error) {
	store := s.store.WithContext(ctx)
	task, err := loadTask(store, taskID)
	if err != nil {
		return nil, err
	}
	attachment, err := loadAttachment(store, task.ID, attachmentID)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckTaskChild(actor, task, attachment, authz.ActionRead).Err(authz.ResourceAttachment, authz.ActionRead); err != nil {
		return nil, err
	}
	return attachment, nil
}

// DeleteAttachment removes the blob and then the row.
func (s *AttachmentService) DeleteAttachment(ctx context.Context, actor authz.Actor, taskID, attachmentID uint64) error {
	return s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		attachment, err := loadAttachment(tx, task.ID, attachmentID)
		if err != nil {
			return err
		}
		if err := authz.CheckTaskChild(actor, task, attachment, authz.ActionDelete).Err(authz.ResourceAttachment, authz.ActionDelete); err != nil {
			return err
		}

		if attachment.FileKey != "" {
			if err := s.files.Delete(ctx, attachment.FileKey); err != nil {
				return fmt.Errorf("%w: %v", ErrFileStorageUnavailable, err)
			}
		}
		if err := tx.Attachments.Delete(attachment.ID); err != nil {
			return fmt.Errorf("failed to delete attachment: %w", err)
		}
		return recordActivity(tx, actor.ID, fmt.Sprintf("deleted an attachment from task '%s'", task.Title), task.ProjectID, &task.ID)
	})
}

// OpenAttachment runs the same checks as GetAttachment and then opens the
// blob. The caller closes the returned reader.
func (s *AttachmentService) OpenAttachment(ctx context.Context, actor authz.Actor, taskID, attachmentID uint64) (*models.Attachment, io.ReadSeekCloser, error) {
	attachment, err := s.GetAttachment(ctx, actor, taskID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	blob, err := s.files.Open(ctx, attachment.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			s.log.WithField("file_key", attachment.FileKey).Warn("Attachment blob is missing")
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrFileStorageUnavailable, err)
	}
	return attachment, blob, nil
}

func loadAttachment(store *repository.Store, taskID, id uint64) (*models.Attachment, error) {
	attachment, err := store.Attachments.FindByTask(taskID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}
	return attachment, nil
}
