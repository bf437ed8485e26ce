// Package workflow holds the rules that govern how tasks move across the
// board and who may touch them.
package workflow

import (
	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const (
	NoticeSentForReview = "Task sent for review. Waiting for owner approval."
	ErrOwnerApproves    = "Only the project owner can approve tasks."
	ErrDoneIsLocked     = "Approved tasks can only be moved by the owner."
)

// Decision is the outcome of one proposed status transition.
type Decision struct {
	Allowed   bool
	Effective models.Status
	Notice    string
	Err       *apperr.Error
}

// Redirected reports whether the write goes to a different column than requested.
func (d Decision) Redirected(requested models.Status) bool {
	return d.Allowed && d.Effective != requested
}

// Decide evaluates moving a task from one status to another for a member
// holding role. It never fails; rejections come back with Allowed unset and
// a Forbidden error.
//
// A worker dropping on done is redirected to review. The redirected target
// is still subject to the remaining checks, so a worker can never move a
// task out of done.
func Decide(from, to models.Status, role models.Role) Decision {
	effective := to
	var notice string

	switch role {
	case models.RoleOwner:
		return Decision{Allowed: true, Effective: to}
	case models.RoleWorker:
		if to == models.StatusDone {
			effective = models.StatusReview
			notice = NoticeSentForReview
		}
	case models.RoleMember:
	default:
		return reject("unknown member role")
	}

	if from == models.StatusReview && effective == models.StatusDone {
		return reject(ErrOwnerApproves)
	}
	if from == models.StatusDone {
		return reject(ErrDoneIsLocked)
	}
	return Decision{Allowed: true, Effective: effective, Notice: notice}
}

func reject(msg string) Decision {
	return Decision{Err: apperr.Forbidden(msg)}
}
