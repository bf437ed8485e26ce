package workflow

import (
	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// Action is something a project member may attempt.
type Action uint8

const (
	ActionViewTask Action = iota + 1
	ActionCreateTask
	ActionEditTask
	ActionDeleteTask
	ActionMoveTask
	ActionComment
	ActionReviewTask
	ActionManageMembers
	ActionManageProject
)

var actionDenials = map[Action]string{
	ActionViewTask:      "You cannot view this task.",
	ActionCreateTask:    "Workers cannot create tasks.",
	ActionEditTask:      "Workers cannot edit tasks.",
	ActionDeleteTask:    "Workers cannot delete tasks.",
	ActionMoveTask:      "You cannot move tasks in this project.",
	ActionComment:       "You cannot comment on this task.",
	ActionReviewTask:    "Only the project owner can review tasks.",
	ActionManageMembers: "Only the project owner can manage members.",
	ActionManageProject: "Only the project owner can change this project.",
}

// Can reports whether role permits action.
func Can(role models.Role, action Action) bool {
	switch role {
	case models.RoleOwner:
		return true
	case models.RoleMember:
		switch action {
		case ActionViewTask, ActionCreateTask, ActionEditTask, ActionDeleteTask, ActionMoveTask, ActionComment:
			return true
		}
	case models.RoleWorker:
		switch action {
		case ActionViewTask, ActionMoveTask, ActionComment:
			return true
		}
	}
	return false
}

// Require returns a Forbidden error when role may not perform action.
func Require(role models.Role, action Action) error {
	if Can(role, action) {
		return nil
	}
	msg, ok := actionDenials[action]
	if !ok {
		msg = "Forbidden"
	}
	return apperr.Forbidden(msg)
}

// ReadOnly reports whether the member gets the read-only task view,
// where only commenting is enabled.
func ReadOnly(role models.Role) bool {
	return !Can(role, ActionEditTask)
}
