package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/workflow"
)

type commentRequest struct {
	Content string `json:"content"`
}

// handleListComments returns the discussion on a task.
func (s *Server) handleListComments(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if _, _, ok := s.taskAccess(c, id); !ok {
		return
	}

	comments, err := s.store.ListComments(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"comments": comments})
}

// handleAddComment posts a comment as the caller. Every role may comment.
func (s *Server) handleAddComment(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	_, role, ok := s.taskAccess(c, id)
	if !ok {
		return
	}
	if err := workflow.Require(role, workflow.ActionComment); err != nil {
		s.respondError(c, err)
		return
	}

	var req commentRequest
	if !s.bindJSON(c, &req) {
		return
	}
	comment, err := s.store.AddComment(c.Request.Context(), id, callerID(c), req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

// handleDeleteComment lets authors and project owners remove a comment.
func (s *Server) handleDeleteComment(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	comment, err := s.store.GetComment(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	_, role, ok := s.taskAccess(c, comment.TaskID)
	if !ok {
		return
	}
	if comment.UserID != callerID(c) && role != models.RoleOwner {
		s.respondError(c, apperr.Forbidden("You can only delete your own comments"))
		return
	}
	if err := s.store.DeleteComment(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
