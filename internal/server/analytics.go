package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"taskboard/internal/analytics"
	"taskboard/internal/models"
)

type projectStats struct {
	Project models.Project  `json:"project"`
	Stats   analytics.Stats `json:"stats"`
}

// handleProjectAnalytics summarizes one board and each member's share of it.
func (s *Server) handleProjectAnalytics(c *gin.Context) {
	projectID, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := s.projectRole(c, projectID); !ok {
		return
	}

	now := s.now()
	var (
		owned   map[string][]analytics.Tally
		members []models.Member
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		owned, err = s.store.ProjectTallies(ctx, projectID, now)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = s.store.ListMembers(ctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.respondError(c, err)
		return
	}

	var board []analytics.Tally
	for _, tallies := range owned {
		board = append(board, tallies...)
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"stats":   analytics.Summarize(board, false),
		"members": analytics.SummarizeMembers(owned, members),
	})
}

// handleOverallAnalytics summarizes every board the caller belongs to.
func (s *Server) handleOverallAnalytics(c *gin.Context) {
	uid := callerID(c)

	now := s.now()
	var (
		projects  []models.Project
		byProject map[int64][]analytics.Tally
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		projects, err = s.store.ListProjects(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		byProject, err = s.store.UserTallies(ctx, uid, now)
		return err
	})
	if err := g.Wait(); err != nil {
		s.respondError(c, err)
		return
	}

	var all []analytics.Tally
	for _, tallies := range byProject {
		all = append(all, tallies...)
	}
	perProject := make([]projectStats, 0, len(projects))
	for _, p := range projects {
		perProject = append(perProject, projectStats{
			Project: p,
			Stats:   analytics.Summarize(byProject[p.ID], false),
		})
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"stats":    analytics.Summarize(all, false),
		"projects": perProject,
	})
}
