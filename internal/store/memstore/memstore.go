// Package memstore is an in-memory store.Store used by tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"boards/internal/models"
	"boards/internal/store"
)

// Store keeps rows in maps guarded by one mutex. Returned values are copies.
type Store struct {
	mu     sync.Mutex
	nextID uint

	boards map[uint]models.Board
	topics map[uint]models.Topic
	posts  map[uint]models.Post
	users  map[uint]models.User
	views  map[viewKey]bool

	// FailNextPostInsert makes the next post insert fail before anything is
	// written. It checks error propagation only; transactional rollback is
	// covered by the postgres suite in package store.
	FailNextPostInsert bool
}

type viewKey struct {
	sessionKey string
	topicID    uint
}

var _ store.Store = (*Store)(nil)

// ErrInjected is returned by writes failed through FailNextPostInsert.
var ErrInjected = errors.New("memstore: injected failure")

func New() *Store {
	return &Store{
		boards: make(map[uint]models.Board),
		topics: make(map[uint]models.Topic),
		posts:  make(map[uint]models.Post),
		users:  make(map[uint]models.User),
		views:  make(map[viewKey]bool),
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) ListBoards(ctx context.Context) ([]models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	boards := make([]models.Board, 0, len(s.boards))
	for _, b := range s.boards {
		boards = append(boards, b)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })

	for i := range boards {
		var last *models.Post
		for _, t := range s.topics {
			if t.BoardID != boards[i].ID {
				continue
			}
			boards[i].TopicCount++
			for _, p := range s.posts {
				if p.TopicID != t.ID {
					continue
				}
				boards[i].PostCount++
				if last == nil || newer(p, *last) {
					p := p
					last = &p
				}
			}
		}
		if last != nil {
			last.CreatedBy = s.users[last.CreatedByID]
			boards[i].LastPost = last
		}
	}
	return boards, nil
}

func newer(a, b models.Post) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *Store) GetBoard(ctx context.Context, id uint) (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Store) CreateBoard(ctx context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boards {
		if b.Name == board.Name {
			return store.ErrDuplicate
		}
	}
	board.ID = s.id()
	now := time.Now()
	board.CreatedAt, board.UpdatedAt = now, now
	s.boards[board.ID] = *board
	return nil
}

func (s *Store) CountBoards(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.boards)), nil
}

func (s *Store) CountTopics(ctx context.Context, boardID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.topics {
		if t.BoardID == boardID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListTopics(ctx context.Context, boardID uint, offset, limit int) ([]models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var topics []models.Topic
	for _, t := range s.topics {
		if t.BoardID == boardID {
			topics = append(topics, t)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].LastUpdated.Equal(topics[j].LastUpdated) {
			return topics[i].ID > topics[j].ID
		}
		return topics[i].LastUpdated.After(topics[j].LastUpdated)
	})
	topics = window(topics, offset, limit)
	for i := range topics {
		topics[i].Starter = s.users[topics[i].StarterID]
		replies := s.countPostsLocked(topics[i].ID) - 1
		if replies < 0 {
			replies = 0
		}
		topics[i].Replies = int(replies)
	}
	return topics, nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (s *Store) GetTopic(ctx context.Context, boardID, topicID uint) (*models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[topicID]
	if !ok || t.BoardID != boardID {
		return nil, store.ErrNotFound
	}
	t.Board = s.boards[t.BoardID]
	t.Starter = s.users[t.StarterID]
	return &t, nil
}

func (s *Store) CreateTopic(ctx context.Context, topic *models.Topic, opening *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[topic.BoardID]; !ok {
		return errors.New("memstore: foreign key violation on topics.board_id")
	}
	if s.FailNextPostInsert {
		s.FailNextPostInsert = false
		return ErrInjected
	}
	topic.ID = s.id()
	s.topics[topic.ID] = stripTopic(*topic)
	opening.TopicID = topic.ID
	opening.ID = s.id()
	s.posts[opening.ID] = stripPost(*opening)
	return nil
}

func (s *Store) RecordView(ctx context.Context, sessionKey string, topicID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[topicID]
	if !ok {
		return false, store.ErrNotFound
	}
	key := viewKey{sessionKey: sessionKey, topicID: topicID}
	if s.views[key] {
		return false, nil
	}
	s.views[key] = true
	t.Views++
	s.topics[topicID] = t
	return true, nil
}

func (s *Store) CountPosts(ctx context.Context, topicID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countPostsLocked(topicID), nil
}

func (s *Store) countPostsLocked(topicID uint) int64 {
	var n int64
	for _, p := range s.posts {
		if p.TopicID == topicID {
			n++
		}
	}
	return n
}

func (s *Store) topicPostsLocked(topicID uint) []models.Post {
	var posts []models.Post
	for _, p := range s.posts {
		if p.TopicID == topicID {
			posts = append(posts, s.withAuthors(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return newer(posts[j], posts[i]) })
	return posts
}

func (s *Store) withAuthors(p models.Post) models.Post {
	p.CreatedBy = s.users[p.CreatedByID]
	if p.UpdatedByID != nil {
		u := s.users[*p.UpdatedByID]
		p.UpdatedBy = &u
	}
	return p
}

func (s *Store) ListPosts(ctx context.Context, topicID uint, offset, limit int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return window(s.topicPostsLocked(topicID), offset, limit), nil
}

func (s *Store) RecentPosts(ctx context.Context, topicID uint, n int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := s.topicPostsLocked(topicID)
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	return window(posts, 0, n), nil
}

func (s *Store) CreateReply(ctx context.Context, post *models.Post) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[post.TopicID]
	if !ok {
		return 0, store.ErrNotFound
	}
	if s.FailNextPostInsert {
		s.FailNextPostInsert = false
		return 0, ErrInjected
	}
	post.ID = s.id()
	s.posts[post.ID] = stripPost(*post)
	if post.CreatedAt.After(t.LastUpdated) {
		t.LastUpdated = post.CreatedAt
		s.topics[t.ID] = t
	}

	var position int64
	for _, p := range s.posts {
		if p.TopicID == post.TopicID && !newer(p, *post) {
			position++
		}
	}
	return position, nil
}

func (s *Store) GetOwnedPost(ctx context.Context, boardID, topicID, postID, ownerID uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok || p.TopicID != topicID || p.CreatedByID != ownerID {
		return nil, store.ErrNotFound
	}
	t, ok := s.topics[topicID]
	if !ok || t.BoardID != boardID {
		return nil, store.ErrNotFound
	}
	t.Board = s.boards[t.BoardID]
	p = s.withAuthors(p)
	p.Topic = t
	return &p, nil
}

func (s *Store) UpdatePostMessage(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[post.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.Message = post.Message
	p.UpdatedByID = post.UpdatedByID
	p.UpdatedAt = post.UpdatedAt
	s.posts[p.ID] = p
	return nil
}

// Post returns the stored post, for assertions in tests.
func (s *Store) Post(id uint) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	return p, ok
}

// Topic returns the stored topic, for assertions in tests.
func (s *Store) Topic(id uint) (models.Topic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[id]
	return t, ok
}

// Counts reports the number of stored topics and posts.
func (s *Store) Counts() (topics, posts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.topics), len(s.posts)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return store.ErrDuplicate
		}
	}
	user.ID = s.id()
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

func stripTopic(t models.Topic) models.Topic {
	t.Board = models.Board{}
	t.Starter = models.User{}
	t.Replies = 0
	return t
}

func stripPost(p models.Post) models.Post {
	p.Topic = models.Topic{}
	p.CreatedBy = models.User{}
	p.UpdatedBy = nil
	return p
}
