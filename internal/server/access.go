package server

import (
	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// projectRole resolves the caller's role in a project. Outsiders are told
// the project does not exist.
func (s *Server) projectRole(c *gin.Context, projectID int64) (models.Role, bool) {
	role, err := s.store.MemberRole(c.Request.Context(), projectID, callerID(c))
	if err != nil {
		s.respondError(c, err)
		return 0, false
	}
	return role, true
}

// taskAccess loads a task together with the caller's role in its project.
func (s *Server) taskAccess(c *gin.Context, taskID int64) (models.Task, models.Role, bool) {
	ctx := c.Request.Context()
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		s.respondError(c, err)
		return models.Task{}, 0, false
	}
	role, err := s.store.MemberRole(ctx, task.ProjectID, callerID(c))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			err = apperr.NotFound("task not found")
		}
		s.respondError(c, err)
		return models.Task{}, 0, false
	}
	return task, role, true
}

// checkAssignees rejects assignee or executor ids that are not project members.
func (s *Server) checkAssignees(c *gin.Context, projectID int64, ids ...string) bool {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := s.store.MemberRole(c.Request.Context(), projectID, id); err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				err = apperr.Validation("Assignee and Executor must be project members")
			}
			s.respondError(c, err)
			return false
		}
	}
	return true
}
