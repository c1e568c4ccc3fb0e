// Package store defines the persistence boundary of the forum and its gorm implementation.
package store

import (
	"context"
	"errors"
	"time"

	"boards/internal/models"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: record not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("store: duplicate record")

// Store is everything the forum workflows need from persistence.
// Lookups return ErrNotFound when nothing matches.
type Store interface {
	BoardStore
	TopicStore
	PostStore
	UserStore
}

type BoardStore interface {
	// ListBoards returns all boards by id ascending, with TopicCount, PostCount
	// and LastPost (author preloaded) filled in.
	ListBoards(ctx context.Context) ([]models.Board, error)
	GetBoard(ctx context.Context, id uint) (*models.Board, error)
	CreateBoard(ctx context.Context, board *models.Board) error
	CountBoards(ctx context.Context) (int64, error)
}

type TopicStore interface {
	CountTopics(ctx context.Context, boardID uint) (int64, error)
	// ListTopics returns a board's topics by LastUpdated descending with Starter
	// preloaded and Replies filled in.
	ListTopics(ctx context.Context, boardID uint, offset, limit int) ([]models.Topic, error)
	// GetTopic finds a topic only if it belongs to boardID.
	GetTopic(ctx context.Context, boardID, topicID uint) (*models.Topic, error)
	// CreateTopic writes the topic and its opening post in one transaction.
	CreateTopic(ctx context.Context, topic *models.Topic, opening *models.Post) error
	// RecordView marks the topic as viewed by sessionKey and increments its
	// view counter, both in one transaction, unless that session has viewed it
	// before. It reports whether the view was counted.
	RecordView(ctx context.Context, sessionKey string, topicID uint) (bool, error)
}

type PostStore interface {
	CountPosts(ctx context.Context, topicID uint) (int64, error)
	// ListPosts returns a topic's posts by CreatedAt ascending with authors preloaded.
	ListPosts(ctx context.Context, topicID uint, offset, limit int) ([]models.Post, error)
	// RecentPosts returns the newest n posts of a topic, newest first.
	RecentPosts(ctx context.Context, topicID uint, n int) ([]models.Post, error)
	// CreateReply inserts the post and advances the topic's LastUpdated to
	// post.CreatedAt unless it is already later, in one transaction. It returns
	// the 1-based position of the post in creation order.
	CreateReply(ctx context.Context, post *models.Post) (int64, error)
	// GetOwnedPost finds a post by id inside the given board and topic, created by ownerID.
	GetOwnedPost(ctx context.Context, boardID, topicID, postID, ownerID uint) (*models.Post, error)
	// UpdatePostMessage persists Message, UpdatedByID and UpdatedAt of the post.
	UpdatePostMessage(ctx context.Context, post *models.Post) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}
