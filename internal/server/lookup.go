package server

import (
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/lookup"
)

const corsAllowHeaders = "authorization, x-client-info, apikey, content-type, x-supabase-client-platform, " +
	"x-supabase-client-platform-version, x-supabase-client-runtime, x-supabase-client-runtime-version"

// maxLookupBody caps the lookup request body.
const maxLookupBody = 1 << 16

// CORS decides which browser origins may call the function routes.
type CORS struct {
	// Allowed origins are echoed back verbatim.
	Allowed []string
	// Any origin ending in Suffix is echoed back too.
	Suffix string
	// Fallback is sent for every other origin.
	Fallback string
}

// AllowOrigin returns the Access-Control-Allow-Origin value for origin.
func (o CORS) AllowOrigin(origin string) string {
	if origin != "" && slices.Contains(o.Allowed, origin) {
		return origin
	}
	if o.Suffix != "" && strings.HasSuffix(origin, o.Suffix) {
		return origin
	}
	return o.Fallback
}

// corsHeaders decorates every function response, errors included.
func (s *Server) corsHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.cors.AllowOrigin(c.GetHeader("Origin")))
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Header("Vary", "Origin")
		c.Next()
	}
}

// handlePreflight answers CORS preflight requests.
func (s *Server) handlePreflight(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleFindUserByEmail resolves an email to a user id and display name.
func (s *Server) handleFindUserByEmail(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLookupBody))
	if err != nil {
		s.respondError(c, apperr.Wrap(apperr.KindValidation, lookup.MsgInvalidBody, err))
		return
	}

	result, err := s.lookup.Lookup(c.Request.Context(), c.GetHeader("Authorization"), body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}
