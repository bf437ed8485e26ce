package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/workflow"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// handleListProjects returns the projects the caller belongs to.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project owned by the caller.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), callerID(c), req.Name, req.Description, req.Color)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleUpdateProject renames or recolors an existing project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	role, ok := s.projectRole(c, id)
	if !ok {
		return
	}
	if err := workflow.Require(role, workflow.ActionManageProject); err != nil {
		s.respondError(c, err)
		return
	}

	var req projectRequest
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.store.UpdateProject(c.Request.Context(), id, req.Name, req.Description, req.Color)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and all related tasks.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	role, ok := s.projectRole(c, id)
	if !ok {
		return
	}
	if role != models.RoleOwner {
		s.respondError(c, apperr.Forbidden("Only the project owner can delete this project"))
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleProjectRole reports the caller's role and what it allows.
func (s *Server) handleProjectRole(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	role, ok := s.projectRole(c, id)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"role":      role,
		"read_only": workflow.ReadOnly(role),
	})
}
