package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/workflow"
)

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Deadline    *string `json:"deadline"`
	AssigneeID  *string `json:"assignee_id"`
	ExecutorID  *string `json:"executor_id"`
}

type moveRequest struct {
	Status string `json:"status"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// changes converts the request into validated task changes.
func (r taskRequest) changes() (models.TaskChanges, error) {
	ch := models.TaskChanges{
		Title:       r.Title,
		Description: r.Description,
		AssigneeID:  r.AssigneeID,
		ExecutorID:  r.ExecutorID,
	}
	if r.Status != nil {
		st, err := models.ParseStatus(*r.Status)
		if err != nil {
			return ch, apperr.Validation("invalid status")
		}
		ch.Status = &st
	}
	if r.Priority != nil {
		p, err := models.ParsePriority(*r.Priority)
		if err != nil {
			return ch, apperr.Validation("invalid priority")
		}
		ch.Priority = &p
	}
	if r.Deadline != nil {
		if strings.TrimSpace(*r.Deadline) == "" {
			ch.ClearDeadline = true
		} else {
			d, err := models.ParseDeadline(*r.Deadline)
			if err != nil {
				return ch, apperr.Validation("invalid deadline")
			}
			ch.Deadline = &d
		}
	}
	return ch, nil
}

// handleListTasks fetches tasks for a project. filter=my keeps only tasks
// the caller executes.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	role, ok := s.projectRole(c, projectID)
	if !ok {
		return
	}

	var filter sqlite.TaskFilter
	switch c.DefaultQuery("filter", "all") {
	case "all":
	case "my":
		filter.ExecutorID = callerID(c)
	default:
		s.respondError(c, apperr.Validation("filter must be all or my"))
		return
	}

	tasks, err := s.store.ListTasks(c.Request.Context(), projectID, filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks, "read_only": workflow.ReadOnly(role)})
}

// handleCreateTask inserts a new task into a project column.
func (s *Server) handleCreateTask(c *gin.Context) {
	projectID, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	role, ok := s.projectRole(c, projectID)
	if !ok {
		return
	}
	if err := workflow.Require(role, workflow.ActionCreateTask); err != nil {
		s.respondError(c, err)
		return
	}

	var req taskRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		s.respondError(c, apperr.Validation("title is required"))
		return
	}
	ch, err := req.changes()
	if err != nil {
		s.respondError(c, err)
		return
	}

	task := models.Task{
		ProjectID:   projectID,
		Title:       *req.Title,
		Description: getString(req.Description),
		AssigneeID:  getString(req.AssigneeID),
		ExecutorID:  getString(req.ExecutorID),
		Deadline:    ch.Deadline,
		CreatorID:   callerID(c),
	}
	if ch.Status != nil {
		task.Status = *ch.Status
	}
	if ch.Priority != nil {
		task.Priority = *ch.Priority
	}
	if !s.checkAssignees(c, projectID, task.AssigneeID, task.ExecutorID) {
		return
	}

	task, err = s.store.CreateTask(c.Request.Context(), task)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask edits task fields. A status change goes through the
// same transition rules as a drag on the board.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, role, ok := s.taskAccess(c, id)
	if !ok {
		return
	}
	if err := workflow.Require(role, workflow.ActionEditTask); err != nil {
		s.respondError(c, err)
		return
	}

	var req taskRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ch, err := req.changes()
	if err != nil {
		s.respondError(c, err)
		return
	}

	var notice string
	if ch.Status != nil && *ch.Status != task.Status {
		decision := workflow.Decide(task.Status, *ch.Status, role)
		if !decision.Allowed {
			s.respondError(c, decision.Err)
			return
		}
		ch.Status = &decision.Effective
		notice = decision.Notice
	}
	if !s.checkAssignees(c, task.ProjectID, getString(ch.AssigneeID), getString(ch.ExecutorID)) {
		return
	}

	task, err = s.store.UpdateTask(c.Request.Context(), id, ch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, taskResponse(task, notice))
}

// handleMoveTask drops a task on another column.
func (s *Server) handleMoveTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, role, ok := s.taskAccess(c, id)
	if !ok {
		return
	}
	if err := workflow.Require(role, workflow.ActionMoveTask); err != nil {
		s.respondError(c, err)
		return
	}

	var req moveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	to, err := models.ParseStatus(req.Status)
	if err != nil {
		s.respondError(c, apperr.Validation("invalid status"))
		return
	}

	decision := workflow.Decide(task.Status, to, role)
	if !decision.Allowed {
		s.respondError(c, decision.Err)
		return
	}
	if decision.Redirected(to) {
		s.logger.Info("task move redirected",
			slog.Int64("task", task.ID),
			slog.String("requested", to.String()),
			slog.String("effective", decision.Effective.String()))
	}

	task, err = s.store.SetTaskStatus(c.Request.Context(), id, decision.Effective)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, taskResponse(task, decision.Notice))
}

// handleApproveTask moves a reviewed task to done.
func (s *Server) handleApproveTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, role, ok := s.taskAccess(c, id)
	if !ok {
		return
	}

	task, err := s.reviewer.Approve(c.Request.Context(), task, role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleRejectTask returns a reviewed task to todo with a reason comment.
func (s *Server) handleRejectTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	task, role, ok := s.taskAccess(c, id)
	if !ok {
		return
	}

	var req rejectRequest
	if !s.bindJSON(c, &req) {
		return
	}

	task, comment, err := s.reviewer.Reject(c.Request.Context(), task, callerID(c), role, req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task, "comment": comment})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	_, role, ok := s.taskAccess(c, id)
	if !ok {
		return
	}
	if err := workflow.Require(role, workflow.ActionDeleteTask); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func taskResponse(task models.Task, notice string) gin.H {
	resp := gin.H{"task": task}
	if notice != "" {
		resp["notice"] = notice
	}
	return resp
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
