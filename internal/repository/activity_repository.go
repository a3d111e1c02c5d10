package repository

import (
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActivityRepository is a GORM implementation of ActivityRepository
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) Create(entry *models.ActivityLog) error {
	return r.db.Omit(clause.Associations).Create(entry).Error
}

func (r *GormActivityRepository) ListByProject(projectID uint64, page utils.PaginationParams) ([]models.ActivityLog, int64, error) {
	return r.list(r.db.Where("project_id = ?", projectID), page)
}

func (r *GormActivityRepository) ListByTask(taskID uint64, page utils.PaginationParams) ([]models.ActivityLog, int64, error) {
	return r.list(r.db.Where("task_id = ?", taskID), page)
}

func (r *GormActivityRepository) list(query *gorm.DB, page utils.PaginationParams) ([]models.ActivityLog, int64, error) {
	query = query.Model(&models.ActivityLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ActivityLog
	if err := query.Preload("Actor").
		Order("occurred_at DESC, id DESC").
		Scopes(database.Paginate(page)).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
