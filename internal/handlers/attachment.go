package handlers

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

type AttachmentHandler struct {
	attachmentService *services.AttachmentService
	maxUploadBytes    int64
	log               *logrus.Logger
}

func NewAttachmentHandler(attachmentService *services.AttachmentService, maxUploadBytes int64, log *logrus.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		maxUploadBytes:    maxUploadBytes,
		log:               log,
	}
}

func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	attachments, err := h.attachmentService.ListAttachments(c.Request.Context(), actor, middleware.IDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": dto.ToAttachmentDTOs(attachments)})
}

// UploadAttachment accepts multipart form data with a "file" part and an
// optional "description" field.
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		// leave room for the other multipart fields
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.BadRequestWithDetails(c, "Invalid input", map[string]string{"file": "file exceeds the upload size limit"})
			return
		}
		apierrors.BadRequestWithDetails(c, "Invalid input", map[string]string{"file": "no file was submitted"})
		return
	}

	file, err := header.Open()
	if err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid input", map[string]string{"file": "the submitted file could not be read"})
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.CreateAttachment(c.Request.Context(), actor, middleware.IDParam(c, "id"), services.UploadInput{
		FileName:    header.Filename,
		Description: c.PostForm("description"),
		Content:     file,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToAttachmentDTO(*attachment))
}

func (h *AttachmentHandler) GetAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	attachment, err := h.attachmentService.GetAttachment(c.Request.Context(), actor, middleware.IDParam(c, "id"), middleware.IDParam(c, "attachment_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAttachmentDTO(*attachment))
}

func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.attachmentService.DeleteAttachment(c.Request.Context(), actor, middleware.IDParam(c, "id"), middleware.IDParam(c, "attachment_id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadAttachment streams the file after the same access check as
// GetAttachment.
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	attachment, blob, err := h.attachmentService.OpenAttachment(c.Request.Context(), actor, middleware.IDParam(c, "id"), middleware.IDParam(c, "attachment_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer blob.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.OriginalName}))
	http.ServeContent(c.Writer, c.Request, attachment.OriginalName, attachment.UploadedAt, blob)
}
