package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CSRFFormField   = "csrf_token"
	csrfSessionKey  = "csrf_token"
	csrfContextKey  = "csrf_token"
	csrfTokenLength = 32 // bytes
)

// GenerateToken creates a cryptographically secure random token.
func GenerateToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the session token with the submitted one.
func ValidateToken(sessionToken, formToken string) bool {
	if sessionToken == "" || formToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sessionToken), []byte(formToken)) == 1
}

// CSRF keeps a token in the session, exposes it to templates and rejects
// unsafe requests whose csrf_token form field does not match it.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(csrfSessionKey).(string)
		if token == "" {
			var err error
			token, err = GenerateToken()
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "failed to generate CSRF token", "error", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			session.Set(csrfSessionKey, token)
			if err := session.Save(); err != nil {
				slog.ErrorContext(c.Request.Context(), "failed to save session", "error", err)
			}
		}
		c.Set(csrfContextKey, token)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if !ValidateToken(token, c.PostForm(CSRFFormField)) {
			slog.WarnContext(c.Request.Context(), "CSRF token validation failed", "path", c.Request.URL.Path)
			c.String(http.StatusForbidden, "CSRF verification failed. Request aborted.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CSRFToken returns the token of the current request for rendering.
func CSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}
