package store

import (
	"context"
	"errors"
	"time"

	"boards/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	}
	return err
}

type countResult struct {
	ID    uint
	Count int64
}

func (s *GormStore) ListBoards(ctx context.Context) ([]models.Board, error) {
	db := s.db.WithContext(ctx)

	var boards []models.Board
	if err := db.Order("id ASC").Find(&boards).Error; err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		return boards, nil
	}

	ids := make([]uint, len(boards))
	for i, b := range boards {
		ids[i] = b.ID
	}

	var topicCounts []countResult
	if err := db.Model(&models.Topic{}).
		Select("board_id AS id, COUNT(*) AS count").
		Where("board_id IN ?", ids).
		Group("board_id").
		Scan(&topicCounts).Error; err != nil {
		return nil, err
	}

	var postCounts []countResult
	if err := db.Model(&models.Post{}).
		Joins("JOIN topics ON topics.id = posts.topic_id").
		Select("topics.board_id AS id, COUNT(*) AS count").
		Where("topics.board_id IN ?", ids).
		Group("topics.board_id").
		Scan(&postCounts).Error; err != nil {
		return nil, err
	}

	topicMap := make(map[uint]int64, len(topicCounts))
	for _, r := range topicCounts {
		topicMap[r.ID] = r.Count
	}
	postMap := make(map[uint]int64, len(postCounts))
	for _, r := range postCounts {
		postMap[r.ID] = r.Count
	}

	for i := range boards {
		boards[i].TopicCount = topicMap[boards[i].ID]
		boards[i].PostCount = postMap[boards[i].ID]
		if boards[i].PostCount == 0 {
			continue
		}
		var last models.Post
		err := db.Preload("CreatedBy").
			Joins("JOIN topics ON topics.id = posts.topic_id").
			Where("topics.board_id = ?", boards[i].ID).
			Order("posts.created_at DESC, posts.id DESC").
			First(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			boards[i].LastPost = &last
		}
	}
	return boards, nil
}

func (s *GormStore) GetBoard(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	if err := s.db.WithContext(ctx).First(&board, id).Error; err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

func (s *GormStore) CreateBoard(ctx context.Context, board *models.Board) error {
	return translate(s.db.WithContext(ctx).Create(board).Error)
}

func (s *GormStore) CountBoards(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Board{}).Count(&count).Error
	return count, err
}

func (s *GormStore) CountTopics(ctx context.Context, boardID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Topic{}).Where("board_id = ?", boardID).Count(&count).Error
	return count, err
}

func (s *GormStore) ListTopics(ctx context.Context, boardID uint, offset, limit int) ([]models.Topic, error) {
	var topics []models.Topic
	err := s.db.WithContext(ctx).Preload("Starter").
		Where("board_id = ?", boardID).
		Order("last_updated DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&topics).Error
	if err != nil {
		return nil, err
	}
	if err := s.fillReplyCounts(ctx, topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// fillReplyCounts sets Replies (posts minus the opening one) for a page of topics in one query.
func (s *GormStore) fillReplyCounts(ctx context.Context, topics []models.Topic) error {
	if len(topics) == 0 {
		return nil
	}

	topicIDs := make([]uint, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}

	var results []countResult
	if err := s.db.WithContext(ctx).Model(&models.Post{}).
		Select("topic_id AS id, COUNT(*) AS count").
		Where("topic_id IN ?", topicIDs).
		Group("topic_id").
		Scan(&results).Error; err != nil {
		return err
	}

	countMap := make(map[uint]int64, len(results))
	for _, r := range results {
		countMap[r.ID] = r.Count
	}

	for i := range topics {
		replies := int(countMap[topics[i].ID]) - 1
		if replies < 0 {
			replies = 0
		}
		topics[i].Replies = replies
	}
	return nil
}

func (s *GormStore) GetTopic(ctx context.Context, boardID, topicID uint) (*models.Topic, error) {
	var topic models.Topic
	err := s.db.WithContext(ctx).Preload("Board").Preload("Starter").
		Where("id = ? AND board_id = ?", topicID, boardID).
		First(&topic).Error
	if err != nil {
		return nil, translate(err)
	}
	return &topic, nil
}

func (s *GormStore) CreateTopic(ctx context.Context, topic *models.Topic, opening *models.Post) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(topic).Error; err != nil {
			return err
		}
		opening.TopicID = topic.ID
		return tx.Omit(clause.Associations).Create(opening).Error
	}))
}

func (s *GormStore) RecordView(ctx context.Context, sessionKey string, topicID uint) (bool, error) {
	var counted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&models.TopicView{SessionKey: sessionKey, TopicID: topicID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		res = tx.Model(&models.Topic{}).
			Where("id = ?", topicID).
			UpdateColumn("views", gorm.Expr("views + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return counted, nil
}

func (s *GormStore) CountPosts(ctx context.Context, topicID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).Where("topic_id = ?", topicID).Count(&count).Error
	return count, err
}

func (s *GormStore) ListPosts(ctx context.Context, topicID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("CreatedBy").Preload("UpdatedBy").
		Where("topic_id = ?", topicID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (s *GormStore) RecentPosts(ctx context.Context, topicID uint, n int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("CreatedBy").
		Where("topic_id = ?", topicID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&posts).Error
	return posts, err
}

func (s *GormStore) CreateReply(ctx context.Context, post *models.Post) (int64, error) {
	var position int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		// Replies committing out of order must not move last_updated backwards.
		res := tx.Model(&models.Topic{}).
			Where("id = ?", post.TopicID).
			UpdateColumn("last_updated", gorm.Expr("GREATEST(last_updated, ?)", post.CreatedAt))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Post{}).
			Where("topic_id = ? AND (created_at < ? OR (created_at = ? AND id <= ?))",
				post.TopicID, post.CreatedAt, post.CreatedAt, post.ID).
			Count(&position).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return position, nil
}

func (s *GormStore) GetOwnedPost(ctx context.Context, boardID, topicID, postID, ownerID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Topic").Preload("Topic.Board").Preload("CreatedBy").
		Joins("JOIN topics ON topics.id = posts.topic_id").
		Where("posts.id = ? AND posts.topic_id = ? AND topics.board_id = ? AND posts.created_by_id = ?",
			postID, topicID, boardID, ownerID).
		First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *GormStore) UpdatePostMessage(ctx context.Context, post *models.Post) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"message":       post.Message,
			"updated_by_id": post.UpdatedByID,
			"updated_at":    post.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}
