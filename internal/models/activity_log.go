package models

import "time"

// ActivityLog is append-only.
type ActivityLog struct {
	ID                uint64    `gorm:"primarykey" json:"id"`
	ActorID           uint64    `gorm:"not null;index" json:"actor_id"`
	ActionDescription string    `gorm:"type:varchar(512);not null" json:"action_description"`
	ProjectID         *uint64   `gorm:"index" json:"project_id"`
	TaskID            *uint64   `gorm:"index" json:"task_id"`
	Timestamp         time.Time `gorm:"column:occurred_at;autoCreateTime;index" json:"timestamp"`

	// Relations
	Actor User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
