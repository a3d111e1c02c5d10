package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *logrus.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// ListProjectTasks returns the tasks of one project
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filter, ok := parseTaskFilter(c)
	if !ok {
		return
	}

	tasks, total, err := h.taskService.ListProjectTasks(c.Request.Context(), actor, middleware.IDParam(c, "id"), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":    dto.ToTaskDTOs(tasks),
		"pagination": paginationResponse(filter.Page, total),
	})
}

// CreateProjectTask creates a task inside a project
func (h *TaskHandler) CreateProjectTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	input, ok := bindTaskInput(c)
	if !ok {
		return
	}

	task, err := h.taskService.CreateProjectTask(c.Request.Context(), actor, middleware.IDParam(c, "id"), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListPersonalTasks returns the caller's personal tasks
func (h *TaskHandler) ListPersonalTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filter, ok := parseTaskFilter(c)
	if !ok {
		return
	}

	tasks, total, err := h.taskService.ListPersonalTasks(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":    dto.ToTaskDTOs(tasks),
		"pagination": paginationResponse(filter.Page, total),
	})
}

// CreatePersonalTask creates a task with no project
func (h *TaskHandler) CreatePersonalTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	input, ok := bindTaskInput(c)
	if !ok {
		return
	}

	task, err := h.taskService.CreatePersonalTask(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), actor, middleware.IDParam(c, "id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask serves both PUT and PATCH
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	input, ok := bindTaskInput(c)
	if !ok {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), actor, middleware.IDParam(c, "id"), input, isPartial(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, middleware.IDParam(c, "id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindTaskInput(c *gin.Context) (services.TaskInput, bool) {
	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return services.TaskInput{}, false
	}

	input := services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate.Set {
		input.DueDate = req.DueDate.Value
		input.ClearDueDate = req.DueDate.Value == nil
	}
	if req.AssigneeID.Set {
		input.AssigneeID = req.AssigneeID.Value
		input.ClearAssignee = req.AssigneeID.Value == nil
	}
	return input, true
}

// parseTaskFilter reads status, priority, assignee, due_after, due_before,
// search, sort, and pagination from the query string.
func parseTaskFilter(c *gin.Context) (repository.TaskFilter, bool) {
	filter := repository.TaskFilter{
		Search:        c.Query("search"),
		SortByDueDate: c.Query("sort") == "due_date",
		Page:          utils.GetPaginationParams(c),
	}
	details := map[string]string{}

	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		if !status.Valid() {
			details["status"] = "select a valid choice"
		}
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		if !priority.Valid() {
			details["priority"] = "select a valid choice"
		}
		filter.Priority = &priority
	}
	if v := c.Query("assignee"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			details["assignee"] = "enter a whole number"
		}
		filter.AssigneeID = &id
	}
	if v := c.Query("due_after"); v != "" {
		t, err := parseQueryDate(v)
		if err != nil {
			details["due_after"] = "enter a valid date"
		}
		filter.DueAfter = &t
	}
	if v := c.Query("due_before"); v != "" {
		t, err := parseQueryDate(v)
		if err != nil {
			details["due_before"] = "enter a valid date"
		}
		filter.DueBefore = &t
	}

	if len(details) > 0 {
		apierrors.BadRequestWithDetails(c, "Invalid filter", details)
		return repository.TaskFilter{}, false
	}
	return filter, true
}

func parseQueryDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
