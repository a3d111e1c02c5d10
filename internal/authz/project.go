package authz

import (
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// CheckProject: owner or member may read; only the owner may write or delete.
// Members must be loaded on p.
func CheckProject(actor Actor, p *models.Project, action Action) Decision {
	if action == ActionRead {
		if actor.IsStaff {
			return decide(true, RequireProjectOwnerOrMember)
		}
		return decide(p.IsOwner(actor.ID) || p.HasMember(actor.ID), RequireProjectOwnerOrMember)
	}
	return decide(actor.IsStaff || p.IsOwner(actor.ID), RequireProjectOwner)
}

// CanManageMembers gates add/remove member.
func CanManageMembers(actor Actor, p *models.Project) Decision {
	return decide(actor.IsStaff || p.IsOwner(actor.ID), RequireProjectOwner)
}

// CanCreateProjectTask gates task creation inside p.
func CanCreateProjectTask(actor Actor, p *models.Project) Decision {
	return decide(actor.IsStaff || p.IsOwner(actor.ID) || p.HasMember(actor.ID), RequireProjectOwnerOrMember)
}

// VisibleProjects narrows a projects query to those the actor owns or belongs to.
func VisibleProjects(actor Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.IsStaff {
			return db
		}
		return db.Where(
			"projects.owner_id = ? OR projects.id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			actor.ID, actor.ID,
		)
	}
}
