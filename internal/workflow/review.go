package workflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// MaxReasonLength bounds a rejection reason in characters.
const MaxReasonLength = 1000

// StatusWriter persists a task's new status.
type StatusWriter interface {
	SetTaskStatus(ctx context.Context, taskID int64, status models.Status) (models.Task, error)
}

// CommentWriter appends a comment to a task.
type CommentWriter interface {
	AddComment(ctx context.Context, taskID int64, userID, content string) (models.Comment, error)
}

// Reviewer approves or rejects tasks waiting in review.
type Reviewer struct {
	tasks    StatusWriter
	comments CommentWriter
}

// NewReviewer builds a Reviewer over the given writers.
func NewReviewer(tasks StatusWriter, comments CommentWriter) *Reviewer {
	return &Reviewer{tasks: tasks, comments: comments}
}

// Approve moves a reviewed task to done.
func (r *Reviewer) Approve(ctx context.Context, task models.Task, role models.Role) (models.Task, error) {
	if err := checkReview(task, role); err != nil {
		return models.Task{}, err
	}
	updated, err := r.tasks.SetTaskStatus(ctx, task.ID, models.StatusDone)
	if err != nil {
		return models.Task{}, fmt.Errorf("approve task %d: %w", task.ID, err)
	}
	return updated, nil
}

// Reject sends a reviewed task back to todo. The reason is recorded as a
// comment by the reviewer first; if that fails the status is left alone.
func (r *Reviewer) Reject(ctx context.Context, task models.Task, reviewerID string, role models.Role, reason string) (models.Task, models.Comment, error) {
	if err := checkReview(task, role); err != nil {
		return models.Task{}, models.Comment{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Task{}, models.Comment{}, apperr.Validation("A rejection reason is required.")
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return models.Task{}, models.Comment{}, apperr.Validation(fmt.Sprintf("Rejection reason must be at most %d characters.", MaxReasonLength))
	}

	comment, err := r.comments.AddComment(ctx, task.ID, reviewerID, reason)
	if err != nil {
		return models.Task{}, models.Comment{}, fmt.Errorf("record rejection reason: %w", err)
	}
	updated, err := r.tasks.SetTaskStatus(ctx, task.ID, models.StatusTodo)
	if err != nil {
		return models.Task{}, comment, fmt.Errorf("reject task %d: %w", task.ID, err)
	}
	return updated, comment, nil
}

func checkReview(task models.Task, role models.Role) error {
	if err := Require(role, ActionReviewTask); err != nil {
		return err
	}
	if task.Status != models.StatusReview {
		return apperr.Validation("Only tasks in review can be approved or rejected.")
	}
	return nil
}
