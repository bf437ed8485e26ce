package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

type fakeBoard struct {
	status      map[int64]models.Status
	comments    []models.Comment
	commentErr  error
	statusErr   error
	statusCalls int
}

func newFakeBoard(id int64, st models.Status) *fakeBoard {
	return &fakeBoard{status: map[int64]models.Status{id: st}}
}

func (f *fakeBoard) SetTaskStatus(_ context.Context, id int64, st models.Status) (models.Task, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return models.Task{}, f.statusErr
	}
	f.status[id] = st
	return models.Task{ID: id, Status: st}, nil
}

func (f *fakeBoard) AddComment(_ context.Context, taskID int64, userID, content string) (models.Comment, error) {
	if f.commentErr != nil {
		return models.Comment{}, f.commentErr
	}
	c := models.Comment{ID: int64(len(f.comments) + 1), TaskID: taskID, UserID: userID, Content: content}
	f.comments = append(f.comments, c)
	return c, nil
}

func TestApprove(t *testing.T) {
	board := newFakeBoard(7, models.StatusReview)
	r := NewReviewer(board, board)

	task, err := r.Approve(context.Background(), models.Task{ID: 7, Status: models.StatusReview}, models.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status)
	assert.Equal(t, models.StatusDone, board.status[7])
}

func TestApproveRequiresOwnerAndReview(t *testing.T) {
	board := newFakeBoard(7, models.StatusReview)
	r := NewReviewer(board, board)

	_, err := r.Approve(context.Background(), models.Task{ID: 7, Status: models.StatusReview}, models.RoleMember)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = r.Approve(context.Background(), models.Task{ID: 7, Status: models.StatusInProgress}, models.RoleOwner)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	assert.Zero(t, board.statusCalls)
}

func TestRejectRecordsReasonThenResets(t *testing.T) {
	board := newFakeBoard(3, models.StatusReview)
	r := NewReviewer(board, board)

	task, comment, err := r.Reject(context.Background(), models.Task{ID: 3, Status: models.StatusReview}, "owner-1", models.RoleOwner, "  tests are missing  ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, "tests are missing", comment.Content)
	assert.Equal(t, "owner-1", comment.UserID)
	require.Len(t, board.comments, 1)
}

func TestRejectCommentFailureLeavesStatus(t *testing.T) {
	board := newFakeBoard(3, models.StatusReview)
	board.commentErr = errors.New("insert comment: database is locked")
	r := NewReviewer(board, board)

	_, _, err := r.Reject(context.Background(), models.Task{ID: 3, Status: models.StatusReview}, "owner-1", models.RoleOwner, "redo it")
	require.Error(t, err)
	assert.Zero(t, board.statusCalls)
	assert.Equal(t, models.StatusReview, board.status[3])
}

func TestRejectValidatesReason(t *testing.T) {
	board := newFakeBoard(3, models.StatusReview)
	r := NewReviewer(board, board)
	task := models.Task{ID: 3, Status: models.StatusReview}

	_, _, err := r.Reject(context.Background(), task, "owner-1", models.RoleOwner, "   ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, _, err = r.Reject(context.Background(), task, "owner-1", models.RoleOwner, strings.Repeat("x", MaxReasonLength+1))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, _, err = r.Reject(context.Background(), task, "worker-1", models.RoleWorker, "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	assert.Empty(t, board.comments)
	assert.Zero(t, board.statusCalls)
}
