package models

import (
	"time"
)

// TopicView records that a session has viewed a topic. The composite key
// makes each (session, topic) pair count once.
type TopicView struct {
	SessionKey string    `gorm:"primaryKey;size:64" json:"session_key"`
	TopicID    uint      `gorm:"primaryKey" json:"topic_id"`
	Topic      Topic     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
