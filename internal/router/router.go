package router

import (
	"log/slog"
	"net/http"

	"boards/internal/forum"
	"boards/internal/handlers"
	"boards/internal/middleware"
	"boards/internal/services"
	"boards/internal/store"
	"boards/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Store          store.Store
	SessionStore   sessions.Store // nil selects a signed cookie store
	Forum          *forum.Service
	Captcha        *services.CaptchaService
	Logger         *slog.Logger
	SessionName    string
	SessionSecret  string
	SecureCookies  bool
	MetricsEnabled bool
}

// New builds the engine: sessions, templates, middleware and routes.
func New(opts Options) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Forum == nil {
		opts.Forum = forum.NewService(opts.Store, forum.WithLogger(opts.Logger))
	}
	if opts.Captcha == nil {
		opts.Captcha = services.NewCaptchaService()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(opts.Logger))
	if opts.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.SecurityHeaders(opts.SecureCookies))

	sessionStore := opts.SessionStore
	if sessionStore == nil {
		sessionStore = cookie.NewStore([]byte(opts.SessionSecret))
	}
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 14,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(opts.SessionName, sessionStore))

	renderer, err := web.LoadTemplates()
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	if opts.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	site := r.Group("/")
	site.Use(middleware.CSRF())
	site.Use(middleware.LoadUser(opts.Store))
	RegisterRoutes(site, opts)

	r.NoRoute(middleware.CSRF(), middleware.LoadUser(opts.Store), handlers.NotFound)
	return r, nil
}

func RegisterRoutes(r *gin.RouterGroup, opts Options) {
	boardHandler := handlers.NewBoardHandler(opts.Forum)
	topicHandler := handlers.NewTopicHandler(opts.Forum)
	postHandler := handlers.NewPostHandler(opts.Forum)
	authHandler := handlers.NewAuthHandler(opts.Store, opts.Captcha)

	// Public Routes
	r.GET("/", boardHandler.Home)
	r.GET("/boards/:id/", boardHandler.Topics)
	r.GET("/boards/:id/topics/:topic_id/", topicHandler.Posts)

	r.GET("/signup/", authHandler.ShowSignup)
	r.POST("/signup/", authHandler.Signup)
	r.GET("/login/", authHandler.ShowLogin)
	r.POST("/login/", authHandler.Login)
	r.GET("/logout/", authHandler.Logout)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/boards/:id/new/", topicHandler.ShowNew)
		authorized.POST("/boards/:id/new/", topicHandler.Create)
		authorized.GET("/boards/:id/topics/:topic_id/reply/", topicHandler.ShowReply)
		authorized.POST("/boards/:id/topics/:topic_id/reply/", topicHandler.Reply)
		authorized.GET("/boards/:id/topics/:topic_id/posts/:post_id/edit/", postHandler.ShowEdit)
		authorized.POST("/boards/:id/topics/:topic_id/posts/:post_id/edit/", postHandler.Update)
	}
}
