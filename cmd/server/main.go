package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boards/internal/config"
	"boards/internal/db"
	"boards/internal/forum"
	"boards/internal/logger"
	"boards/internal/router"
	"boards/internal/services"
	"boards/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.LogLevel, cfg.LogJSON)
	gin.SetMode(cfg.GinMode)

	if cfg.UsesDefaultSecret() {
		slog.Warn("SESSION_SECRET is not set, using the development key")
	}

	conn, err := db.Open(cfg.DatabaseURL, logger.ParseLevel(cfg.LogLevel) == slog.LevelDebug)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(conn); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	st := store.NewGormStore(conn)
	if err := db.SeedBoards(context.Background(), st, cfg.SeedBoards); err != nil {
		slog.Error("Failed to seed boards", "error", err)
		os.Exit(1)
	}

	r, err := router.New(router.Options{
		Store:          st,
		SessionStore:   db.SessionStore(conn, cfg.SessionSecret),
		Forum:          forum.NewService(st, forum.WithLogger(logger.Log)),
		Captcha:        services.NewCaptchaService(),
		Logger:         logger.Log,
		SessionName:    cfg.SessionName,
		SessionSecret:  cfg.SessionSecret,
		SecureCookies:  cfg.SecureCookies,
		MetricsEnabled: cfg.MetricsEnabled,
	})
	if err != nil {
		slog.Error("Failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Boards server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	slog.Info("Server exited")
}
