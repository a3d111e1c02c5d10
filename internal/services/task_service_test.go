package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

type taskTestEnv struct {
	db       *gorm.DB
	projects *ProjectService
	tasks    *TaskService
	owner    *models.User
	member   *models.User
	outsider *models.User
	project  *models.Project
}

func setupTaskTestEnv(t *testing.T) taskTestEnv {
	t.Helper()

	store, db := setupTestStore(t)
	env := taskTestEnv{
		db:       db,
		projects: NewProjectService(store),
		tasks:    NewTaskService(store),
		owner:    createTestUser(t, db, "alice"),
		member:   createTestUser(t, db, "bob"),
		outsider: createTestUser(t, db, "carol"),
	}

	project, err := env.projects.CreateProject(context.Background(), actorOf(env.owner), ProjectInput{
		Name:      strPtr("Apollo"),
		MemberIDs: []uint64{env.member.ID},
	})
	require.NoError(t, err)
	env.project = project
	return env
}

func (env taskTestEnv) notificationsFor(t *testing.T, userID uint64) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, env.db.Where("recipient_id = ?", userID).Order("id").Find(&out).Error)
	return out
}

func TestCreateProjectTask_SetsServerFields(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()

	task, err := env.tasks.CreateProjectTask(ctx, actorOf(env.member), env.project.ID, TaskInput{Title: strPtr("Launch")})
	require.NoError(t, err)

	require.NotNil(t, task.ProjectID)
	assert.Equal(t, env.project.ID, *task.ProjectID)
	assert.False(t, task.IsPersonal)
	assert.Equal(t, env.member.ID, task.CreatedByID)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.Nil(t, task.AssigneeID)
	assert.Equal(t, int64(1), countRows(t, env.db, &models.ActivityLog{}, "action_description = ? AND task_id = ?", "created task 'Launch'", task.ID))
	assert.Empty(t, env.notificationsFor(t, env.member.ID))
}

func TestCreateProjectTask_Errors(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()

	_, err := env.tasks.CreateProjectTask(ctx, actorOf(env.outsider), env.project.ID, TaskInput{Title: strPtr("x")})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = env.tasks.CreateProjectTask(ctx, actorOf(env.owner), 9999, TaskInput{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = env.tasks.CreateProjectTask(ctx, actorOf(env.owner), env.project.ID, TaskInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")

	missing := uint64(9999)
	_, err = env.tasks.CreateProjectTask(ctx, actorOf(env.owner), env.project.ID, TaskInput{Title: strPtr("x"), AssigneeID: &missing})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "assignee_id")

	bad := models.TaskStatus("NOPE")
	_, err = env.tasks.CreateProjectTask(ctx, actorOf(env.owner), env.project.ID, TaskInput{Title: strPtr("x"), Status: &bad})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")
}

func TestCreatePersonalTask_AssignsCreator(t *testing.T) {
	env := setupTaskTestEnv(t)

	task, err := env.tasks.CreatePersonalTask(context.Background(), actorOf(env.outsider), TaskInput{
		Title:      strPtr("Groceries"),
		AssigneeID: &env.member.ID,
	})
	require.NoError(t, err)

	assert.True(t, task.IsPersonal)
	assert.Nil(t, task.ProjectID)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, env.outsider.ID, *task.AssigneeID)
	assert.Equal(t, env.outsider.ID, task.CreatedByID)

	notifications := env.notificationsFor(t, env.outsider.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, "carol assigned you the task 'Groceries' in project 'a project'", notifications[0].Message)
	assert.Empty(t, env.notificationsFor(t, env.member.ID))
	assert.Equal(t, int64(0), countRows(t, env.db, &models.ActivityLog{}, "task_id = ?", task.ID))
}

func TestUpdateTask_KeepsPersonalInvariant(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()

	task, err := env.tasks.CreatePersonalTask(ctx, actorOf(env.outsider), TaskInput{Title: strPtr("Groceries")})
	require.NoError(t, err)

	updated, err := env.tasks.UpdateTask(ctx, actorOf(env.outsider), task.ID, TaskInput{
		AssigneeID:    &env.member.ID,
		ClearDueDate:  true,
		ClearAssignee: false,
	}, true)
	require.NoError(t, err)
	assert.True(t, updated.IsPersonal)
	assert.Nil(t, updated.ProjectID)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, env.outsider.ID, *updated.AssigneeID)

	updated, err = env.tasks.UpdateTask(ctx, actorOf(env.outsider), task.ID, TaskInput{ClearAssignee: true}, true)
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, env.outsider.ID, *updated.AssigneeID)

	assert.Equal(t, int64(0), countRows(t, env.db, &models.ActivityLog{}, "task_id = ?", task.ID))
	assert.Len(t, env.notificationsFor(t, env.outsider.ID), 1)
}

func TestPersonalTask_ForbiddenToOthers(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()

	task, err := env.tasks.CreatePersonalTask(ctx, actorOf(env.owner), TaskInput{Title: strPtr("Diary")})
	require.NoError(t, err)

	bob := actorOf(env.member)
	_, err = env.tasks.GetTask(ctx, bob, task.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, err = env.tasks.UpdateTask(ctx, bob, task.ID, TaskInput{Title: strPtr("mine")}, true)
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, bob, task.ID), authz.ErrForbidden)

	staff := authz.Actor{ID: env.member.ID, IsStaff: true}
	_, err = env.tasks.GetTask(ctx, staff, task.ID)
	assert.NoError(t, err)
}

func TestAssignTask_NotifiesOnce(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()
	alice := actorOf(env.owner)

	task, err := env.tasks.CreateProjectTask(ctx, alice, env.project.ID, TaskInput{Title: strPtr("Launch")})
	require.NoError(t, err)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{AssigneeID: &env.member.ID}, true)
	require.NoError(t, err)

	notifications := env.notificationsFor(t, env.member.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, "You have been assigned a new task", notifications[0].Title)
	assert.Equal(t, "alice assigned you the task 'Launch' in project 'Apollo'", notifications[0].Message)
	require.NotNil(t, notifications[0].TaskID)
	assert.Equal(t, task.ID, *notifications[0].TaskID)

	// same assignee again, then an unrelated edit: no new notification
	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{AssigneeID: &env.member.ID}, true)
	require.NoError(t, err)
	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{Title: strPtr("Launch v2")}, true)
	require.NoError(t, err)
	assert.Len(t, env.notificationsFor(t, env.member.ID), 1)

	// clearing the assignee notifies nobody
	updated, err := env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{ClearAssignee: true}, true)
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)
	assert.Len(t, env.notificationsFor(t, env.member.ID), 1)
	assert.Empty(t, env.notificationsFor(t, env.owner.ID))

	// reassigning after a clear notifies again
	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{AssigneeID: &env.member.ID}, true)
	require.NoError(t, err)
	assert.Len(t, env.notificationsFor(t, env.member.ID), 2)
}

func TestUpdateTask_LogsVerb(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()
	alice := actorOf(env.owner)

	task, err := env.tasks.CreateProjectTask(ctx, alice, env.project.ID, TaskInput{Title: strPtr("Launch")})
	require.NoError(t, err)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{Description: strPtr("soon")}, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{Title: strPtr("Launch")}, false)
	require.NoError(t, err)
	_, err = env.tasks.UpdateTask(ctx, alice, task.ID, TaskInput{Description: strPtr("soon")}, true)
	require.NoError(t, err)

	assert.Equal(t, int64(1), countRows(t, env.db, &models.ActivityLog{}, "action_description = ?", "updated task 'Launch'"))
	assert.Equal(t, int64(1), countRows(t, env.db, &models.ActivityLog{}, "action_description = ?", "partially updated task 'Launch'"))
}

func TestProjectTaskPermissions(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()

	task, err := env.tasks.CreateProjectTask(ctx, actorOf(env.owner), env.project.ID, TaskInput{
		Title:      strPtr("Launch"),
		AssigneeID: &env.outsider.ID,
	})
	require.NoError(t, err)

	// the assignee is not a member but may read and edit
	carol := actorOf(env.outsider)
	_, err = env.tasks.GetTask(ctx, carol, task.ID)
	require.NoError(t, err)
	_, err = env.tasks.UpdateTask(ctx, carol, task.ID, TaskInput{Status: statusPtr(models.TaskStatusDone)}, true)
	require.NoError(t, err)

	// members edit but only the owner deletes
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, actorOf(env.member), task.ID), authz.ErrForbidden)
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, carol, task.ID), authz.ErrForbidden)
	require.NoError(t, env.tasks.DeleteTask(ctx, actorOf(env.owner), task.ID))

	var entry models.ActivityLog
	require.NoError(t, env.db.Where("action_description = ?", "deleted task 'Launch'").First(&entry).Error)
	require.NotNil(t, entry.ProjectID)
	assert.Equal(t, env.project.ID, *entry.ProjectID)
	assert.Nil(t, entry.TaskID)

	_, err = env.tasks.GetTask(ctx, actorOf(env.owner), task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestListTasks_Scopes(t *testing.T) {
	env := setupTaskTestEnv(t)
	ctx := context.Background()

	due := time.Now().Add(48 * time.Hour)
	_, err := env.tasks.CreateProjectTask(ctx, actorOf(env.owner), env.project.ID, TaskInput{Title: strPtr("Launch"), DueDate: &due})
	require.NoError(t, err)
	_, err = env.tasks.CreateProjectTask(ctx, actorOf(env.member), env.project.ID, TaskInput{Title: strPtr("Review")})
	require.NoError(t, err)
	_, err = env.tasks.CreatePersonalTask(ctx, actorOf(env.member), TaskInput{Title: strPtr("Laundry")})
	require.NoError(t, err)

	tasks, total, err := env.tasks.ListProjectTasks(ctx, actorOf(env.member), env.project.ID, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 2)

	tasks, _, err = env.tasks.ListProjectTasks(ctx, actorOf(env.outsider), env.project.ID, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, _, err = env.tasks.ListProjectTasks(ctx, actorOf(env.owner), 9999, repository.TaskFilter{})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	tasks, _, err = env.tasks.ListProjectTasks(ctx, actorOf(env.owner), env.project.ID, repository.TaskFilter{Search: "laun"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Launch", tasks[0].Title)

	tasks, _, err = env.tasks.ListPersonalTasks(ctx, actorOf(env.member), repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Laundry", tasks[0].Title)

	tasks, _, err = env.tasks.ListPersonalTasks(ctx, actorOf(env.owner), repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func statusPtr(s models.TaskStatus) *models.TaskStatus {
	return &s
}
