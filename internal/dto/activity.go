package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// ActivityLogDTO represents one activity entry
type ActivityLogDTO struct {
	ID                uint64    `json:"id"`
	Actor             *UserDTO  `json:"actor"`
	ActionDescription string    `json:"action_description"`
	Project           *uint64   `json:"project"`
	Task              *uint64   `json:"task"`
	Timestamp         time.Time `json:"timestamp"`
}

// NotificationDTO represents one inbox entry
type NotificationDTO struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Project   *uint64   `json:"project"`
	Task      *uint64   `json:"task"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ToActivityLogDTOs converts activity entries
func ToActivityLogDTOs(entries []models.ActivityLog) []ActivityLogDTO {
	out := make([]ActivityLogDTO, len(entries))
	for i, e := range entries {
		out[i] = ActivityLogDTO{
			ID:                e.ID,
			Actor:             ToUserDTOPtr(&e.Actor),
			ActionDescription: e.ActionDescription,
			Project:           e.ProjectID,
			Task:              e.TaskID,
			Timestamp:         e.Timestamp,
		}
	}
	return out
}

// ToNotificationDTO converts a Notification model
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Project:   n.ProjectID,
		Task:      n.TaskID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// ToNotificationDTOs converts notifications
func ToNotificationDTOs(notifications []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		out[i] = ToNotificationDTO(n)
	}
	return out
}
