package services

import (
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
)

const (
	assignmentTitle       = "You have been assigned a new task"
	unnamedProjectMessage = "a project"
)

// recordActivity appends one entry to the activity trail.
func recordActivity(tx *repository.Store, actorID uint64, description string, projectID, taskID *uint64) error {
	entry := &models.ActivityLog{
		ActorID:           actorID,
		ActionDescription: description,
		ProjectID:         projectID,
		TaskID:            taskID,
	}
	if err := tx.Activity.Create(entry); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// notifyAssignee creates an inbox entry for task's assignee when it differs
// from previous and is set. It reports whether a notification was written.
func notifyAssignee(tx *repository.Store, actor *models.User, task *models.Task, projectName string, previous *uint64) (bool, error) {
	if task.AssigneeID == nil {
		return false, nil
	}
	if previous != nil && *previous == *task.AssigneeID {
		return false, nil
	}

	if projectName == "" {
		projectName = unnamedProjectMessage
	}

	notification := &models.Notification{
		RecipientID: *task.AssigneeID,
		Title:       assignmentTitle,
		Message:     fmt.Sprintf("%s assigned you the task '%s' in project '%s'", actor.Username, task.Title, projectName),
		ProjectID:   task.ProjectID,
		TaskID:      &task.ID,
	}
	if err := tx.Notifications.Create(notification); err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}
	return true, nil
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}
