package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// TaskService handles task business logic
type TaskService struct {
	store *repository.Store
}

// NewTaskService creates a new TaskService
func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{store: store}
}

// TaskInput represents the writable task fields. Nil pointers are left
// unchanged; the Clear flags null a field explicitly.
type TaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uint64
	ClearAssignee bool
}

func (in TaskInput) validate(requireTitle bool) error {
	fields := fieldErrors{}
	switch {
	case in.Title == nil && requireTitle:
		fields.add("title", "this field is required")
	case in.Title != nil && strings.TrimSpace(*in.Title) == "":
		fields.add("title", "this field may not be blank")
	}
	if in.Status != nil && !in.Status.Valid() {
		fields.add("status", fmt.Sprintf("%q is not a valid choice", *in.Status))
	}
	if in.Priority != nil && !in.Priority.Valid() {
		fields.add("priority", fmt.Sprintf("%q is not a valid choice", *in.Priority))
	}
	return fields.err()
}

// apply copies every field except the assignee onto task.
func (in TaskInput) apply(task *models.Task) {
	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.ClearDueDate {
		task.DueDate = nil
	} else if in.DueDate != nil {
		due := *in.DueDate
		task.DueDate = &due
	}
}

// ListProjectTasks lists the tasks of a project. Actors who cannot see the
// project get an empty list rather than an error.
func (s *TaskService) ListProjectTasks(ctx context.Context, actor authz.Actor, projectID uint64, filter repository.TaskFilter) ([]models.Task, int64, error) {
	store := s.store.WithContext(ctx)
	if _, err := loadProject(store, projectID); err != nil {
		return nil, 0, err
	}

	tasks, total, err := store.Tasks.List(authz.ProjectTasks(actor, projectID), filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// CreateProjectTask creates a task inside a project the actor owns or belongs to.
func (s *TaskService) CreateProjectTask(ctx context.Context, actor authz.Actor, projectID uint64, input TaskInput) (*models.Task, error) {
	if err := input.validate(true); err != nil {
		return nil, err
	}

	var task *models.Task
	notified := false
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}
		if err := authz.CanCreateProjectTask(actor, project).Err(authz.ResourceTask, authz.ActionCreate); err != nil {
			return err
		}

		task = newTask(actor.ID)
		input.apply(task)
		task.ProjectID = &project.ID
		task.IsPersonal = false
		if input.AssigneeID != nil && !input.ClearAssignee {
			if err := requireAssignee(tx, *input.AssigneeID); err != nil {
				return err
			}
			task.AssigneeID = uint64Ptr(*input.AssigneeID)
		}

		if err := tx.Tasks.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if err := recordActivity(tx, actor.ID, fmt.Sprintf("created task '%s'", task.Title), &project.ID, &task.ID); err != nil {
			return err
		}

		actorUser, err := findUser(tx, actor.ID)
		if err != nil {
			return err
		}
		notified, err = notifyAssignee(tx, actorUser, task, project.Name, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if notified {
		metrics.RecordNotification()
	}
	return loadTask(s.store.WithContext(ctx), task.ID)
}

// ListPersonalTasks lists the actor's own personal tasks.
func (s *TaskService) ListPersonalTasks(ctx context.Context, actor authz.Actor, filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.store.WithContext(ctx).Tasks.List(authz.PersonalTasks(actor), filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// CreatePersonalTask creates a task with no project, assigned to its creator.
// Any assignee in input is ignored.
func (s *TaskService) CreatePersonalTask(ctx context.Context, actor authz.Actor, input TaskInput) (*models.Task, error) {
	if err := input.validate(true); err != nil {
		return nil, err
	}

	var task *models.Task
	notified := false
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		actorUser, err := findUser(tx, actor.ID)
		if err != nil {
			return err
		}

		task = newTask(actor.ID)
		input.apply(task)
		task.ProjectID = nil
		task.IsPersonal = true
		task.AssigneeID = uint64Ptr(actor.ID)

		if err := tx.Tasks.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		notified, err = notifyAssignee(tx, actorUser, task, "", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if notified {
		metrics.RecordNotification()
	}
	return loadTask(s.store.WithContext(ctx), task.ID)
}

// GetTask returns a task the actor may read.
func (s *TaskService) GetTask(ctx context.Context, actor authz.Actor, id uint64) (*models.Task, error) {
	task, err := loadTask(s.store.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckTask(actor, task, authz.ActionRead).Err(authz.ResourceTask, authz.ActionRead); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies input to a task. A full update requires a title.
// Personal tasks keep their creator as assignee and are not logged.
func (s *TaskService) UpdateTask(ctx context.Context, actor authz.Actor, id uint64, input TaskInput, partial bool) (*models.Task, error) {
	if err := input.validate(!partial); err != nil {
		return nil, err
	}

	notified := false
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		task, err := loadTask(tx, id)
		if err != nil {
			return err
		}
		if err := authz.CheckTask(actor, task, authz.ActionUpdate).Err(authz.ResourceTask, authz.ActionUpdate); err != nil {
			return err
		}

		var previous *uint64
		if task.AssigneeID != nil {
			previous = uint64Ptr(*task.AssigneeID)
		}

		input.apply(task)
		task.IsPersonal = task.ProjectID == nil
		if task.IsPersonal {
			task.AssigneeID = uint64Ptr(task.CreatedByID)
		} else {
			switch {
			case input.ClearAssignee:
				task.AssigneeID = nil
			case input.AssigneeID != nil:
				if err := requireAssignee(tx, *input.AssigneeID); err != nil {
					return err
				}
				task.AssigneeID = uint64Ptr(*input.AssigneeID)
			}
		}
		task.Assignee = nil

		if err := tx.Tasks.Update(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		projectName := ""
		if !task.IsPersonal {
			verb := "updated"
			if partial {
				verb = "partially updated"
			}
			if err := recordActivity(tx, actor.ID, fmt.Sprintf("%s task '%s'", verb, task.Title), task.ProjectID, &task.ID); err != nil {
				return err
			}
			if task.Project != nil {
				projectName = task.Project.Name
			}
		}

		actorUser, err := findUser(tx, actor.ID)
		if err != nil {
			return err
		}
		notified, err = notifyAssignee(tx, actorUser, task, projectName, previous)
		return err
	})
	if err != nil {
		return nil, err
	}
	if notified {
		metrics.RecordNotification()
	}
	return loadTask(s.store.WithContext(ctx), id)
}

// DeleteTask removes a task. Only project tasks leave an activity entry.
func (s *TaskService) DeleteTask(ctx context.Context, actor authz.Actor, id uint64) error {
	return s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		task, err := loadTask(tx, id)
		if err != nil {
			return err
		}
		if err := authz.CheckTask(actor, task, authz.ActionDelete).Err(authz.ResourceTask, authz.ActionDelete); err != nil {
			return err
		}

		title, projectID := task.Title, task.ProjectID
		if err := tx.Tasks.Delete(task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if projectID == nil {
			return nil
		}
		return recordActivity(tx, actor.ID, fmt.Sprintf("deleted task '%s'", title), projectID, nil)
	})
}

func newTask(creatorID uint64) *models.Task {
	return &models.Task{
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		CreatedByID: creatorID,
	}
}

func requireAssignee(tx *repository.Store, userID uint64) error {
	if _, err := findUser(tx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return invalidField("assignee_id", fmt.Sprintf("user %d does not exist", userID))
		}
		return err
	}
	return nil
}

func loadTask(store *repository.Store, id uint64) (*models.Task, error) {
	task, err := store.Tasks.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
