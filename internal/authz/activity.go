package authz

import "github.com/yukikurage/project-tracker-api/internal/models"

// CanViewProjectActivity: activity is visible to whoever can read the project.
func CanViewProjectActivity(actor Actor, p *models.Project) Decision {
	return CheckProject(actor, p, ActionRead)
}

// CanViewTaskActivity: activity is visible to whoever can read the task.
func CanViewTaskActivity(actor Actor, t *models.Task) Decision {
	return CheckTask(actor, t, ActionRead)
}
