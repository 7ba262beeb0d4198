package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a post or a reply (ParentPostID set).
type Post struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"user"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	ParentPostID *uint          `gorm:"index" json:"parent_post_id,omitempty"`
	IsPrivate    bool           `gorm:"not null;default:false;index" json:"is_private"`
	Hashtags     []Hashtag      `gorm:"many2many:post_hashtags" json:"hashtags"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Attached from the media table by owner kind.
	Media []Media `gorm:"-" json:"media"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Hashtag is a normalized tag shared by posts through post_hashtags.
type Hashtag struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Hashtag string `gorm:"uniqueIndex;not null;size:100" json:"hashtag"`
}
