package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// compositeIndexes are the multi-column indexes the list scopes rely on.
// Single-column indexes come from struct tags.
var compositeIndexes = []struct {
	model   interface{}
	table   string
	name    string
	columns string
}{
	{&models.Task{}, "tasks", "idx_tasks_project_personal", "project_id, is_personal"},
	{&models.Task{}, "tasks", "idx_tasks_creator_personal", "created_by_id, is_personal"},
	{&models.ProjectMember{}, "project_members", "idx_project_members_user", "user_id, project_id"},
	{&models.ActivityLog{}, "activity_logs", "idx_activity_logs_project_time", "project_id, occurred_at"},
	{&models.Notification{}, "notifications", "idx_notifications_recipient_read", "recipient_id, is_read"},
	{&models.PasswordResetToken{}, "password_reset_tokens", "idx_reset_tokens_user_used", "user_id, is_used"},
}

// AddIndexes creates missing composite indexes.
func AddIndexes(db *gorm.DB, log *logrus.Logger) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(logrus.Fields{
			"index":   idx.name,
			"table":   idx.table,
			"columns": idx.columns,
		}).Info("Created index")
	}

	return nil
}

// MigrateDatabase runs the post-AutoMigrate steps.
func MigrateDatabase(db *gorm.DB, log *logrus.Logger) error {
	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	return nil
}
