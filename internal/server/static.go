package server

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
)

var apiPrefixes = []string{"/api/", "/functions/"}

func isAPIPath(p string) bool {
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// mountStatic serves the compiled board frontend. Unknown non-API paths
// fall back to index.html so client-side routes survive a reload.
func (s *Server) mountStatic() {
	s.engine.NoRoute(func(c *gin.Context) {
		s.respondError(c, apperr.NotFound("endpoint not found"))
	})

	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", slog.String("path", s.staticDir), slog.Any("error", err))
		return
	}

	assetsDir := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, false))
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", slog.String("path", indexPath), slog.Any("error", err))
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})
	s.engine.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if isAPIPath(p) {
			s.respondError(c, apperr.NotFound("endpoint not found"))
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		// Top-level files such as favicon.ico or robots.txt.
		if name := path.Base(p); path.Dir(p) == "/" && name != "index.html" {
			file := filepath.Join(s.staticDir, name)
			if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
				c.File(file)
				return
			}
		}
		c.File(indexPath)
	})
}
