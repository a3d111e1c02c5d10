package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "INPR"
	TaskStatusDone       TaskStatus = "DONE"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MED"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is either a project task (ProjectID set, IsPersonal false) or a
// personal task (ProjectID nil, IsPersonal true, AssigneeID == CreatedByID).
// Services set both fields; they are never taken from client input.
type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TaskStatus     `gorm:"type:varchar(4);not null;default:'TODO';index" json:"status"`
	Priority    TaskPriority   `gorm:"type:varchar(4);not null;default:'MED'" json:"priority"`
	DueDate     *time.Time     `gorm:"index" json:"due_date"`
	IsPersonal  bool           `gorm:"not null;default:false;index" json:"is_personal"`
	ProjectID   *uint64        `gorm:"index" json:"project_id"`
	AssigneeID  *uint64        `gorm:"index" json:"assignee_id"`
	CreatedByID uint64         `gorm:"not null;index" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project   *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee  *User    `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	CreatedBy User     `gorm:"foreignKey:CreatedByID" json:"-"`
}

// IsAssignee reports whether userID is the current assignee.
func (t *Task) IsAssignee(userID uint64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
