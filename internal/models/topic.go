package models

import (
	"time"
)

// PostsPerPage is the page size of both topic and post listings.
const PostsPerPage = 20

type Topic struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Subject     string    `gorm:"size:255;not null" json:"subject"`
	BoardID     uint      `gorm:"not null;index" json:"board_id"`
	Board       Board     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"board"`
	StarterID   uint      `gorm:"not null;index" json:"starter_id"`
	Starter     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"starter"`
	Views       int       `gorm:"not null;default:0" json:"views"`
	LastUpdated time.Time `gorm:"not null;index" json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`

	// Filled in by listings, not stored.
	Replies int `gorm:"-" json:"replies"`
}

// PageCount returns how many pages of posts the topic spans, based on Replies.
func (t *Topic) PageCount() int {
	posts := t.Replies + 1
	return (posts + PostsPerPage - 1) / PostsPerPage
}

// HasManyPages reports whether the topic needs page links in listings.
func (t *Topic) HasManyPages() bool {
	return t.PageCount() > 1
}

// PageLinks lists the page numbers shown next to a topic: the first four pages,
// plus the last one when the topic is longer than that.
func (t *Topic) PageLinks() []int {
	count := t.PageCount()
	if count <= 4 {
		links := make([]int, count)
		for i := range links {
			links[i] = i + 1
		}
		return links
	}
	return []int{1, 2, 3, 4, count}
}
