package models

import "time"

type Attachment struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	FileKey      string    `gorm:"type:varchar(255);not null" json:"file"`
	OriginalName string    `gorm:"type:varchar(255)" json:"original_name"`
	Size         int64     `json:"size"`
	Description  string    `gorm:"type:varchar(255)" json:"description"`
	UploaderID   uint64    `gorm:"not null;index" json:"uploader_id"`
	TaskID       uint64    `gorm:"not null;index" json:"task_id"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	// Relations
	Uploader User `gorm:"foreignKey:UploaderID" json:"uploader,omitempty"`
	Task     Task `gorm:"foreignKey:TaskID" json:"-"`
}

// OwnerID returns the uploader.
func (a *Attachment) OwnerID() uint64 {
	return a.UploaderID
}
