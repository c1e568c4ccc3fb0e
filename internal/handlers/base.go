package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"boards/internal/forum"
	"boards/internal/middleware"
	"boards/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render injects the values every page needs: the current user, the CSRF token and the path.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CSRFToken"] = middleware.CSRFToken(c)
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Code": code, "Error": message})
}

// NotFound is the fallback for unknown routes.
func NotFound(c *gin.Context) {
	RenderError(c, http.StatusNotFound, "Page not found")
}

// handleError maps workflow errors onto responses. Validation errors are
// handled by the caller because they re-render the form.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, forum.ErrNotFound):
		NotFound(c)
	case errors.Is(err, forum.ErrUnauthorized):
		c.Redirect(http.StatusFound, middleware.LoginURL(c.Request.URL.RequestURI()))
	default:
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed",
			"path", c.Request.URL.Path,
			"request_id", middleware.GetRequestID(c),
			"error", err)
		RenderError(c, http.StatusInternalServerError, "Server error")
	}
}

// idParam reads a positive id route parameter; a malformed id is reported as not found.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		NotFound(c)
	}
	return id, ok
}
