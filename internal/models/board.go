package models

import (
	"time"
)

type Board struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:30;not null;unique" json:"name"`
	Description string    `gorm:"size:100" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Filled in by board listings, not stored.
	TopicCount int64 `gorm:"-" json:"topic_count"`
	PostCount  int64 `gorm:"-" json:"post_count"`
	LastPost   *Post `gorm:"-" json:"last_post,omitempty"`
}
