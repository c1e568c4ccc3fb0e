package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"boards/internal/models"
	"boards/internal/store/memstore"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// client replays the cookies set by earlier responses.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, handler: h, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range cl.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	cl.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		cl.cookies[ck.Name] = ck
	}
	return w
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

func newEngine(st *memstore.Store) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(CSRF())
	r.Use(LoadUser(st))

	r.GET("/token", func(c *gin.Context) { c.String(http.StatusOK, CSRFToken(c)) })
	r.POST("/submit", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/as/:name", func(c *gin.Context) {
		user, err := st.GetUserByUsername(c.Request.Context(), c.Param("name"))
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		_ = Login(c, user)
		c.Status(http.StatusOK)
	})
	r.GET("/logout", func(c *gin.Context) {
		_ = Logout(c)
		c.Status(http.StatusOK)
	})
	r.GET("/whoami", func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	private := r.Group("/")
	private.Use(AuthRequired())
	private.GET("/boards/:id/new/", func(c *gin.Context) { c.String(http.StatusOK, "form") })
	return r
}

func TestCSRF(t *testing.T) {
	cl := newClient(t, newEngine(memstore.New()))

	w := cl.post("/submit", url.Values{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = cl.get("/token")
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Body.String()
	assert.NotEmpty(t, token)

	w = cl.get("/token")
	assert.Equal(t, token, w.Body.String(), "token is stable within a session")

	w = cl.post("/submit", url.Values{CSRFFormField: {"forged"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = cl.post("/submit", url.Values{CSRFFormField: {token}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestValidateToken(t *testing.T) {
	assert.False(t, ValidateToken("", ""))
	assert.False(t, ValidateToken("a", ""))
	assert.False(t, ValidateToken("a", "b"))
	assert.True(t, ValidateToken("abc", "abc"))

	tok, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, tok, 44)
}

func TestAuthRequiredRedirects(t *testing.T) {
	cl := newClient(t, newEngine(memstore.New()))

	w := cl.get("/boards/1/new/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/?next=/boards/1/new/", w.Header().Get("Location"))
}

func TestLoadUser(t *testing.T) {
	st := memstore.New()
	require.NoError(t, st.CreateUser(context.Background(), &models.User{Username: "john", Password: "x"}))
	cl := newClient(t, newEngine(st))

	assert.Equal(t, "anonymous", cl.get("/whoami").Body.String())

	require.Equal(t, http.StatusOK, cl.get("/as/john").Code)
	assert.Equal(t, "john", cl.get("/whoami").Body.String())

	w := cl.get("/boards/1/new/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "form", w.Body.String())

	cl.get("/logout")
	assert.Equal(t, "anonymous", cl.get("/whoami").Body.String())
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login/?next=/boards/1/topics/2/reply/", LoginURL("/boards/1/topics/2/reply/"))
	assert.Equal(t, "/login/?next=/boards/1/%3Fpage%3D2", LoginURL("/boards/1/?page=2"))
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                         "/",
		"/boards/1/":               "/boards/1/",
		"/boards/1/?page=2":        "/boards/1/?page=2",
		"//evil.example.com/":      "/",
		"https://evil.example.com": "/",
		`/\evil.example.com`:       "/",
		"boards/1/":                "/",
	}
	for next, want := range tests {
		assert.Equal(t, want, SafeNext(next, "/"), next)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	r.GET("/boards/:id/", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boards/9/", nil))
	line := buf.String()
	assert.Contains(t, line, "level=WARN")
	assert.Contains(t, line, "route=/boards/:id/")
	assert.Contains(t, line, "status=404")
	assert.Contains(t, line, "request_id=")
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/boards/:id/", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/boards/:id/", "200")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boards/1/", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boards/2/", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}
