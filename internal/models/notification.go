package models

import "time"

type Notification struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	RecipientID uint64    `gorm:"not null;index" json:"recipient_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	ProjectID   *uint64   `json:"project_id"`
	TaskID      *uint64   `json:"task_id"`
	IsRead      bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
	Task    *Task    `gorm:"foreignKey:TaskID" json:"-"`
}
