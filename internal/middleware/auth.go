package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"boards/internal/models"
	"boards/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CurrentUserKey = "user"
	SessionUserKey = "user_id"
	LoginPath      = "/login/"
)

// LoadUser retrieves the session user and sets it on the context.
// A session pointing at a deleted user is cleared.
func LoadUser(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(uint)
		if !ok {
			c.Next()
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		switch {
		case err == nil:
			c.Set(CurrentUserKey, user)
		case errors.Is(err, store.ErrNotFound):
			session.Delete(SessionUserKey)
			_ = session.Save()
		default:
			slog.ErrorContext(c.Request.Context(), "load session user", "user_id", userID, "error", err)
		}
		c.Next()
	}
}

// CurrentUser returns the logged in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// Login binds the session to user.
func Login(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Set(SessionUserKey, user.ID)
	c.Set(CurrentUserKey, user)
	return session.Save()
}

func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

// LoginURL is the login page with next pointing back at requestURI.
func LoginURL(requestURI string) string {
	next := strings.ReplaceAll(url.QueryEscape(requestURI), "%2F", "/")
	return LoginPath + "?next=" + next
}

// AuthRequired redirects anonymous users to the login page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SafeNext returns next when it is a local path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
