package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

type ActivityHandler struct {
	activityService *services.ActivityService
	log             *logrus.Logger
}

func NewActivityHandler(activityService *services.ActivityService, log *logrus.Logger) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, log: log}
}

// ListProjectActivity returns the activity log of a project, newest first
func (h *ActivityHandler) ListProjectActivity(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.activityService.ListProjectActivity(c.Request.Context(), actor, middleware.IDParam(c, "id"), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":    dto.ToActivityLogDTOs(entries),
		"pagination": paginationResponse(params, total),
	})
}

// ListTaskActivity returns the activity log of a task, newest first
func (h *ActivityHandler) ListTaskActivity(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.activityService.ListTaskActivity(c.Request.Context(), actor, middleware.IDParam(c, "id"), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":    dto.ToActivityLogDTOs(entries),
		"pagination": paginationResponse(params, total),
	})
}
