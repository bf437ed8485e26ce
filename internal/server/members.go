package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/workflow"
)

type memberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// handleListMembers returns the membership of a project.
func (s *Server) handleListMembers(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := s.projectRole(c, id); !ok {
		return
	}

	members, err := s.store.ListMembers(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"members": members})
}

// handleAddMember enrolls an existing user, usually found through the
// email lookup function.
func (s *Server) handleAddMember(c *gin.Context) {
	projectID, ok := s.ownerOnly(c)
	if !ok {
		return
	}

	var req memberRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		s.respondError(c, apperr.Validation("user_id is required"))
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.respondError(c, apperr.Validation("role must be member or worker"))
		return
	}

	member, err := s.store.AddMember(c.Request.Context(), projectID, req.UserID, role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"member": member})
}

// handleUpdateMember switches a member between the member and worker roles.
func (s *Server) handleUpdateMember(c *gin.Context) {
	projectID, ok := s.ownerOnly(c)
	if !ok {
		return
	}
	memberID, ok := s.memberInProject(c, projectID)
	if !ok {
		return
	}

	var req memberRequest
	if !s.bindJSON(c, &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		s.respondError(c, apperr.Validation("role must be member or worker"))
		return
	}

	member, err := s.store.UpdateMemberRole(c.Request.Context(), memberID, role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"member": member})
}

// handleRemoveMember removes a non-owner from the project.
func (s *Server) handleRemoveMember(c *gin.Context) {
	projectID, ok := s.ownerOnly(c)
	if !ok {
		return
	}
	memberID, ok := s.memberInProject(c, projectID)
	if !ok {
		return
	}
	if err := s.store.RemoveMember(c.Request.Context(), memberID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "removed"})
}

func (s *Server) ownerOnly(c *gin.Context) (int64, bool) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return 0, false
	}
	role, ok := s.projectRole(c, id)
	if !ok {
		return 0, false
	}
	if err := workflow.Require(role, workflow.ActionManageMembers); err != nil {
		s.respondError(c, err)
		return 0, false
	}
	return id, true
}

func (s *Server) memberInProject(c *gin.Context, projectID int64) (int64, bool) {
	memberID, ok := s.parseID(c, "memberId")
	if !ok {
		return 0, false
	}
	member, err := s.store.GetMember(c.Request.Context(), memberID)
	if err == nil && member.ProjectID != projectID {
		err = apperr.NotFound("member not found")
	}
	if err != nil {
		s.respondError(c, err)
		return 0, false
	}
	return memberID, true
}
