package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/auth"
	"taskboard/internal/lookup"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/workflow"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Store     *sqlite.Store
	Tokens    *auth.Tokens
	Lookup    *lookup.Service
	CORS      CORS
	StaticDir string
	Logger    *slog.Logger
	Now       func() time.Time
}

// Server provides HTTP handlers for the task board backend.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	tokens    *auth.Tokens
	lookup    *lookup.Service
	reviewer  *workflow.Reviewer
	cors      CORS
	logger    *slog.Logger
	staticDir string
	now       func() time.Time
}

// New constructs the HTTP server with routes and middleware configured.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		store:     deps.Store,
		tokens:    deps.Tokens,
		lookup:    deps.Lookup,
		reviewer:  workflow.NewReviewer(deps.Store, deps.Store),
		cors:      deps.CORS,
		logger:    logger,
		staticDir: deps.StaticDir,
		now:       now,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/auth/signup", s.handleSignUp)
		api.POST("/auth/signin", s.handleSignIn)

		authed := api.Group("", s.requireAuth())
		authed.GET("/me", s.handleMe)
		authed.PUT("/me", s.handleUpdateMe)
		authed.GET("/analytics", s.handleOverallAnalytics)

		projects := authed.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/role", s.handleProjectRole)
			projects.GET(":id/members", s.handleListMembers)
			projects.POST(":id/members", s.handleAddMember)
			projects.PUT(":id/members/:memberId", s.handleUpdateMember)
			projects.DELETE(":id/members/:memberId", s.handleRemoveMember)
			projects.GET(":id/tasks", s.handleListTasks)
			projects.POST(":id/tasks", s.handleCreateTask)
			projects.GET(":id/analytics", s.handleProjectAnalytics)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.POST(":id/move", s.handleMoveTask)
			tasks.POST(":id/approve", s.handleApproveTask)
			tasks.POST(":id/reject", s.handleRejectTask)
			tasks.GET(":id/comments", s.handleListComments)
			tasks.POST(":id/comments", s.handleAddComment)
		}

		authed.DELETE("/comments/:id", s.handleDeleteComment)
	}

	functions := s.engine.Group("/functions/v1", s.corsHeaders())
	{
		functions.OPTIONS("/find-user-by-email", s.handlePreflight)
		functions.POST("/find-user-by-email", s.handleFindUserByEmail)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.respondError(c, apperr.Validation("invalid identifier"))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, apperr.Wrap(apperr.KindValidation, lookup.MsgInvalidBody, err))
		return false
	}
	return true
}

// respondError logs the error and returns a JSON payload whose status
// follows the error kind. Internal failures never leak their cause.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()

	message := "internal server error"
	var appErr *apperr.Error
	if kind != apperr.KindInternal && errors.As(err, &appErr) {
		message = appErr.Error()
	}

	if kind == apperr.KindInternal {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.String("kind", string(kind)), slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
