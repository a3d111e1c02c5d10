package authz

import "github.com/yukikurage/project-tracker-api/internal/models"

// Ownable is implemented by task children that record who created them
// (comment author, attachment uploader).
type Ownable interface {
	OwnerID() uint64
}

// CheckTaskChild is the object check for comments and attachments.
//
// Reading follows the parent task's read rule, so the assignee sees the same
// children it can list. Only the author may update, and the project owner or
// the author may delete. Personal parents admit only their creator.
func CheckTaskChild(actor Actor, task *models.Task, child Ownable, action Action) Decision {
	if task.IsPersonal {
		return decide(actor.IsStaff || task.CreatedByID == actor.ID, RequireTaskCreator)
	}

	if action == ActionRead {
		return CheckTask(actor, task, ActionRead)
	}

	isAuthor := child.OwnerID() == actor.ID
	isOwner := task.Project != nil && task.Project.IsOwner(actor.ID)

	switch action {
	case ActionDelete:
		return decide(actor.IsStaff || isOwner || isAuthor, RequireOwnerOrAuthor)
	default:
		return decide(actor.IsStaff || isAuthor, RequireAuthor)
	}
}

// CanAccessTaskChildren gates listing and creating comments, attachments, and
// task activity: the same rule as reading the parent task.
func CanAccessTaskChildren(actor Actor, task *models.Task) Decision {
	return CheckTask(actor, task, ActionRead)
}
