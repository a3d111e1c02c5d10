package repository

import (
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

func (r *GormAttachmentRepository) Create(attachment *models.Attachment) error {
	return r.db.Omit(clause.Associations).Create(attachment).Error
}

// FindByTask finds an attachment only if it belongs to taskID
func (r *GormAttachmentRepository) FindByTask(taskID, id uint64) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.Preload("Uploader").
		Where("task_id = ?", taskID).
		First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListByTask lists a task's attachments, newest first
func (r *GormAttachmentRepository) ListByTask(taskID uint64) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.Preload("Uploader").
		Where("task_id = ?", taskID).
		Order("uploaded_at DESC, id DESC").
		Find(&attachments).Error
	return attachments, err
}

func (r *GormAttachmentRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Attachment{}, id).Error
}
