package dto

import (
	"fmt"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	Body      string    `json:"body"`
	Author    *UserDTO  `json:"author"`
	Task      uint64    `json:"task"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentRequest is the body of comment create and update
type CommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// AttachmentDTO represents an attachment in API responses
type AttachmentDTO struct {
	ID           uint64    `json:"id"`
	File         string    `json:"file"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Description  string    `json:"description"`
	Uploader     *UserDTO  `json:"uploader"`
	Task         uint64    `json:"task"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		Body:      comment.Body,
		Author:    ToUserDTOPtr(&comment.Author),
		Task:      comment.TaskID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = ToCommentDTO(c)
	}
	return out
}

// AttachmentDownloadPath is the authenticated route serving an attachment's content
func AttachmentDownloadPath(attachment models.Attachment) string {
	return fmt.Sprintf("/api/tasks/%d/attachments/%d/download", attachment.TaskID, attachment.ID)
}

// ToAttachmentDTO converts an Attachment
func ToAttachmentDTO(attachment models.Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:           attachment.ID,
		File:         AttachmentDownloadPath(attachment),
		OriginalName: attachment.OriginalName,
		Size:         attachment.Size,
		Description:  attachment.Description,
		Uploader:     ToUserDTOPtr(&attachment.Uploader),
		Task:         attachment.TaskID,
		UploadedAt:   attachment.UploadedAt,
	}
}

// ToAttachmentDTOs converts a slice of attachments
func ToAttachmentDTOs(attachments []models.Attachment) []AttachmentDTO {
	out := make([]AttachmentDTO, len(attachments))
	for i, a := range attachments {
		out[i] = ToAttachmentDTO(a)
	}
	return out
}
