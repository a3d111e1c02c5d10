package repository

import (
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project and one member row per id in memberIDs
func (r *GormProjectRepository) Create(project *models.Project, memberIDs []uint64) error {
	if err := r.db.Omit(clause.Associations).Create(project).Error; err != nil {
		return err
	}
	if len(memberIDs) == 0 {
		return nil
	}

	now := time.Now()
	members := make([]models.ProjectMember, len(memberIDs))
	for i, userID := range memberIDs {
		members[i] = models.ProjectMember{
			ProjectID: project.ID,
			UserID:    userID,
			JoinedAt:  now,
		}
	}
	return r.db.Omit(clause.Associations).Create(&members).Error
}

// FindByID finds a project with its owner and members loaded
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Preload("Members.User").
		First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves the projects visible to actor, newest first
func (r *GormProjectRepository) List(actor authz.Actor, filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.Model(&models.Project{}).Scopes(authz.VisibleProjects(actor))
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(strings.ToLower(search))
		query = query.Where("LOWER(projects.name) LIKE ? OR LOWER(projects.description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	if err := query.
		Preload("Owner").
		Preload("Members").
		Preload("Members.User").
		Order("projects.created_at DESC, projects.id DESC").
		Scopes(database.Paginate(filter.Page)).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update saves the project's own columns
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit(clause.Associations).Save(project).Error
}

// Delete soft deletes the project and its tasks and removes memberships
func (r *GormProjectRepository) Delete(id uint64) error {
	if err := r.db.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Project{}, id).Error
}

// AddMember inserts a membership row
func (r *GormProjectRepository) AddMember(projectID, userID uint64) error {
	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	return r.db.Omit(clause.Associations).Create(&member).Error
}

// RemoveMember deletes a membership row
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}
