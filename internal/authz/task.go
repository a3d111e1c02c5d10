package authz

import (
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// CheckTask branches on IsPersonal first: personal tasks belong to their
// creator alone. For project tasks the owner, members, and the assignee may
// read and update, but only the owner may delete. t.Project and its Members
// must be loaded for project tasks.
func CheckTask(actor Actor, t *models.Task, action Action) Decision {
	if t.IsPersonal {
		return decide(actor.IsStaff || t.CreatedByID == actor.ID, RequireTaskCreator)
	}

	if action == ActionDelete {
		if actor.IsStaff {
			return decide(true, RequireProjectOwner)
		}
		if t.Project == nil {
			return decide(false, RequireProjectOwner)
		}
		return decide(t.Project.IsOwner(actor.ID), RequireProjectOwner)
	}

	if actor.IsStaff {
		return decide(true, RequireProjectParticipant)
	}
	if t.Project == nil {
		return decide(false, RequireProjectParticipant)
	}
	p := t.Project
	return decide(p.IsOwner(actor.ID) || p.HasMember(actor.ID) || t.IsAssignee(actor.ID), RequireProjectParticipant)
}

// ProjectTasks narrows a tasks query to the non-personal tasks of projectID,
// and for non-staff actors only when they own or belong to that project.
func ProjectTasks(actor Actor, projectID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("tasks.project_id = ? AND tasks.is_personal = ?", projectID, false)
		if actor.IsStaff {
			return db
		}
		return db.Where(
			"EXISTS (SELECT 1 FROM projects WHERE projects.id = tasks.project_id AND projects.deleted_at IS NULL"+
				" AND (projects.owner_id = ? OR projects.id IN (SELECT project_id FROM project_members WHERE user_id = ?)))",
			actor.ID, actor.ID,
		)
	}
}

// PersonalTasks narrows a tasks query to the actor's own personal tasks.
// Staff get no wider view here; they reach other users' tasks by id only.
func PersonalTasks(actor Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.created_by_id = ? AND tasks.is_personal = ?", actor.ID, true)
	}
}
