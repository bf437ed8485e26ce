package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/auth"
	"taskboard/internal/lookup"
	"taskboard/internal/models"
)

const callerKey = "caller"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type profileRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	User    models.User    `json:"user"`
	Profile models.Profile `json:"profile"`
}

// requireAuth verifies the bearer token and stores the caller's claims.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.tokens.Verify(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			s.respondError(c, apperr.Unauthorized())
			return
		}
		c.Set(callerKey, claims)
		c.Next()
	}
}

// callerID returns the authenticated user's id.
func callerID(c *gin.Context) string {
	claims, _ := c.MustGet(callerKey).(auth.Claims)
	return claims.UserID
}

// handleSignUp registers a user and returns a session.
func (s *Server) handleSignUp(c *gin.Context) {
	var req credentialsRequest
	if !s.bindJSON(c, &req) {
		return
	}

	email, err := lookup.NormalizeEmail(req.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	user, err := s.store.CreateUser(c.Request.Context(), email, hash, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondSession(c, http.StatusCreated, user)
}

// handleSignIn exchanges credentials for a session.
func (s *Server) handleSignIn(c *gin.Context) {
	var req credentialsRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		s.respondError(c, err)
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.respondError(c, apperr.New(apperr.KindUnauthorized, "Invalid login credentials"))
		return
	}
	s.respondSession(c, http.StatusOK, user)
}

func (s *Server) respondSession(c *gin.Context, status int, user models.User) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	profile, err := s.store.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, status, sessionResponse{Token: token, User: user, Profile: profile})
}

// handleMe returns the caller's account and profile.
func (s *Server) handleMe(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := s.store.GetUser(ctx, callerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	profile, err := s.store.GetProfile(ctx, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user, "profile": profile})
}

// handleUpdateMe edits the caller's display profile.
func (s *Server) handleUpdateMe(c *gin.Context) {
	var req profileRequest
	if !s.bindJSON(c, &req) {
		return
	}
	profile, err := s.store.UpdateProfile(c.Request.Context(), callerID(c), req.Name, req.AvatarURL)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"profile": profile})
}
