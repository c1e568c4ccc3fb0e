package models

import (
	"time"
)

type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TopicID     uint       `gorm:"not null;index" json:"topic_id"`
	Topic       Topic      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"topic"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	CreatedByID uint       `gorm:"not null;index" json:"created_by_id"`
	CreatedBy   User       `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"created_by"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedByID *uint      `gorm:"index" json:"updated_by_id"`
	UpdatedBy   *User      `gorm:"foreignKey:UpdatedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"updated_by"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"` // set only on edit
}

// Edited reports whether the post was changed after creation.
func (p *Post) Edited() bool {
	return p.UpdatedAt != nil
}
