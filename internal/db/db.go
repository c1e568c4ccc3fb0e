package db

import (
	"context"
	"fmt"
	"log/slog"

	"boards/internal/config"
	"boards/internal/models"
	"boards/internal/store"

	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to postgres. Driver errors are translated so that unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("Database connection established")
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.Topic{},
		&models.Post{},
		&models.TopicView{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("Database migration completed")
	return nil
}

// SessionStore keeps sessions in the database so the cookie carries only the
// session id. Expired sessions are purged in the background.
func SessionStore(conn *gorm.DB, secret string) sessions.Store {
	return gormsessions.NewStore(conn, true, []byte(secret))
}

// SeedBoards creates the given boards when the boards table is empty.
func SeedBoards(ctx context.Context, boards store.BoardStore, seeds []config.SeedBoard) error {
	if len(seeds) == 0 {
		return nil
	}
	count, err := boards.CountBoards(ctx)
	if err != nil {
		return fmt.Errorf("count boards: %w", err)
	}
	if count > 0 {
		slog.Debug("Boards already seeded, skipping", "count", count)
		return nil
	}

	for _, seed := range seeds {
		board := &models.Board{Name: seed.Name, Description: seed.Description}
		if err := boards.CreateBoard(ctx, board); err != nil {
			return fmt.Errorf("create board %q: %w", seed.Name, err)
		}
	}
	slog.Info("Initial boards created", "count", len(seeds))
	return nil
}
