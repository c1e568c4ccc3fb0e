// Package forum implements the board/topic/post workflows independently of HTTP.
//
// Every operation is synchronous and request scoped. Reads and writes go through
// store.Store; failures of the store come back wrapped in ErrStorage, missing
// records as ErrNotFound, missing identity as ErrUnauthorized and rejected input
// as *ValidationError.
package forum

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"boards/internal/forms"
	"boards/internal/models"
	"boards/internal/pagination"
	"boards/internal/store"
)

// RecentPostsOnReply is how many of the latest posts the reply page shows.
const RecentPostsOnReply = 10

type Service struct {
	store store.Store
	now   func() time.Time
	log   *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is truncated to what postgres keeps so values survive a round trip.
func (s *Service) timestamp() time.Time {
	return s.now().Truncate(time.Microsecond)
}

type TopicPage struct {
	Board  *models.Board
	Topics []models.Topic
	Page   pagination.Page
}

type PostPage struct {
	Topic *models.Topic
	Posts []models.Post
	Page  pagination.Page
}

type ReplyResult struct {
	Post *models.Post
	// Page is the post listing page the new post lands on.
	Page int
}

// ListBoards returns every board by id ascending, with topic/post counts and the latest post.
func (s *Service) ListBoards(ctx context.Context) ([]models.Board, error) {
	boards, err := s.store.ListBoards(ctx)
	if err != nil {
		return nil, storageFailure("list boards", err)
	}
	return boards, nil
}

func (s *Service) GetBoard(ctx context.Context, boardID uint) (*models.Board, error) {
	board, err := s.store.GetBoard(ctx, boardID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFailure("get board", err)
	}
	return board, nil
}

// ListTopics returns one page of a board's topics, most recently active first.
func (s *Service) ListTopics(ctx context.Context, boardID uint, pageToken string) (*TopicPage, error) {
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountTopics(ctx, board.ID)
	if err != nil {
		return nil, storageFailure("count topics", err)
	}
	page := pagination.Resolve(pageToken, total, models.PostsPerPage)

	topics, err := s.store.ListTopics(ctx, board.ID, page.Offset(), page.Limit())
	if err != nil {
		return nil, storageFailure("list topics", err)
	}
	return &TopicPage{Board: board, Topics: topics, Page: page}, nil
}

// CreateTopic opens a topic on the board with its first post, written atomically.
func (s *Service) CreateTopic(ctx context.Context, boardID uint, user *models.User, form *forms.NewTopicForm) (*models.Topic, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	board, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if fe := forms.Validate(form); fe != nil {
		return nil, &ValidationError{Fields: fe}
	}

	now := s.timestamp()
	topic := &models.Topic{
		Subject:     form.Subject,
		BoardID:     board.ID,
		StarterID:   user.ID,
		LastUpdated: now,
		CreatedAt:   now,
	}
	opening := &models.Post{
		Message:     form.Message,
		CreatedByID: user.ID,
		CreatedAt:   now,
	}
	if err := s.store.CreateTopic(ctx, topic, opening); err != nil {
		return nil, storageFailure("create topic", err)
	}

	topicsCreated.Inc()
	postsCreated.WithLabelValues("opening").Inc()
	s.log.InfoContext(ctx, "topic created", "board_id", board.ID, "topic_id", topic.ID, "user_id", user.ID)

	topic.Board = *board
	topic.Starter = *user
	return topic, nil
}

// GetTopic finds a topic that belongs to the board.
func (s *Service) GetTopic(ctx context.Context, boardID, topicID uint) (*models.Topic, error) {
	topic, err := s.store.GetTopic(ctx, boardID, topicID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFailure("get topic", err)
	}
	return topic, nil
}

// ListPosts returns one page of a topic's posts in creation order. The topic's
// view counter is incremented the first time the session identified by
// sessionKey sees it; an empty sessionKey disables counting.
func (s *Service) ListPosts(ctx context.Context, boardID, topicID uint, sessionKey string, pageToken string) (*PostPage, error) {
	topic, err := s.GetTopic(ctx, boardID, topicID)
	if err != nil {
		return nil, err
	}

	if sessionKey != "" {
		counted, err := s.store.RecordView(ctx, sessionKey, topic.ID)
		if err != nil {
			return nil, storageFailure("record view", err)
		}
		if counted {
			topic.Views++
			topicViews.Inc()
		}
	}

	total, err := s.store.CountPosts(ctx, topic.ID)
	if err != nil {
		return nil, storageFailure("count posts", err)
	}
	page := pagination.Resolve(pageToken, total, models.PostsPerPage)

	posts, err := s.store.ListPosts(ctx, topic.ID, page.Offset(), page.Limit())
	if err != nil {
		return nil, storageFailure("list posts", err)
	}
	topic.Replies = int(total) - 1
	return &PostPage{Topic: topic, Posts: posts, Page: page}, nil
}

// RecentPosts returns the latest posts of a topic, newest first, for the reply page.
func (s *Service) RecentPosts(ctx context.Context, topic *models.Topic) ([]models.Post, error) {
	posts, err := s.store.RecentPosts(ctx, topic.ID, RecentPostsOnReply)
	if err != nil {
		return nil, storageFailure("recent posts", err)
	}
	return posts, nil
}

// Reply appends a post to the topic and moves the topic's LastUpdated forward to it.
func (s *Service) Reply(ctx context.Context, boardID, topicID uint, user *models.User, form *forms.PostForm) (*ReplyResult, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	topic, err := s.GetTopic(ctx, boardID, topicID)
	if err != nil {
		return nil, err
	}
	if fe := forms.Validate(form); fe != nil {
		return nil, &ValidationError{Fields: fe}
	}

	post := &models.Post{
		TopicID:     topic.ID,
		Message:     form.Message,
		CreatedByID: user.ID,
		CreatedAt:   s.timestamp(),
	}
	position, err := s.store.CreateReply(ctx, post)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageFailure("create reply", err)
	}
	postsCreated.WithLabelValues("reply").Inc()

	if post.CreatedAt.After(topic.LastUpdated) {
		topic.LastUpdated = post.CreatedAt
	}
	post.Topic = *topic
	post.CreatedBy = *user
	s.log.InfoContext(ctx, "reply posted", "topic_id", topic.ID, "post_id", post.ID, "user_id", user.ID)

	return &ReplyResult{
		Post: post,
		Page: pagination.NumPages(position, models.PostsPerPage),
	}, nil
}

// GetEditablePost finds a post the user may edit. Posts owned by someone else
// are reported as ErrNotFound, exactly like missing ones.
func (s *Service) GetEditablePost(ctx context.Context, boardID, topicID, postID uint, user *models.User) (*models.Post, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	post, err := s.store.GetOwnedPost(ctx, boardID, topicID, postID, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageFailure("get post", err)
	}
	return post, nil
}

// EditPost replaces the message of a post owned by user and records the edit.
// On validation failure the returned post still carries the submitted message
// so the form can be shown again.
func (s *Service) EditPost(ctx context.Context, boardID, topicID, postID uint, user *models.User, form *forms.PostForm) (*models.Post, error) {
	post, err := s.GetEditablePost(ctx, boardID, topicID, postID, user)
	if err != nil {
		return nil, err
	}
	if fe := forms.Validate(form); fe != nil {
		post.Message = form.Message
		return post, &ValidationError{Fields: fe}
	}

	now := s.timestamp()
	post.Message = form.Message
	post.UpdatedByID = &user.ID
	post.UpdatedAt = &now
	if err := s.store.UpdatePostMessage(ctx, post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageFailure("update post", err)
	}
	post.UpdatedBy = user

	postsEdited.Inc()
	s.log.InfoContext(ctx, "post edited", "post_id", post.ID, "user_id", user.ID)
	return post, nil
}
