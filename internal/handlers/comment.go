package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
	log            *logrus.Logger
}

func NewCommentHandler(commentService *services.CommentService, log *logrus.Logger) *CommentHandler {
	return &CommentHandler{commentService: commentService, log: log}
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), actor, middleware.IDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": dto.ToCommentDTOs(comments)})
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), actor, middleware.IDParam(c, "id"), req.Body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	comment, err := h.commentService.GetComment(c.Request.Context(), actor, middleware.IDParam(c, "id"), middleware.IDParam(c, "comment_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// UpdateComment serves PUT and PATCH; body is the only writable field.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), actor, middleware.IDParam(c, "id"), middleware.IDParam(c, "comment_id"), req.Body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), actor, middleware.IDParam(c, "id"), middleware.IDParam(c, "comment_id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
