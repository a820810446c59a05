package services

import "tasktrack/backend/internal/models"

type TaskAction string

const (
	ActionView     TaskAction = "view"
	ActionEdit     TaskAction = "edit"
	ActionDelete   TaskAction = "delete"
	ActionComplete TaskAction = "complete"
)

// Allowed is the single authorization decision for task operations. It is
// pure: every mutating service call runs through it before touching the
// store, and nothing else makes permission decisions.
//
// view:      any authenticated identity
// edit:      admin or creator
// delete:    admin or creator
// complete:  admin, creator or assignee
func Allowed(actor models.Identity, task models.Task, action TaskAction) bool {
	switch action {
	case ActionView:
		return true
	case ActionEdit, ActionDelete:
		return actor.IsAdmin() || actor.ID == task.CreatedBy
	case ActionComplete:
		if actor.IsAdmin() || actor.ID == task.CreatedBy {
			return true
		}
		return task.AssignedTo != nil && actor.ID == *task.AssignedTo
	default:
		return false
	}
}
