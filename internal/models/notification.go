package models

import "time"

// NotificationType enumerates what happened.
type NotificationType string

const (
	NotificationLike     NotificationType = "like"
	NotificationRepost   NotificationType = "repost"
	NotificationComment  NotificationType = "comment"
	NotificationFollow   NotificationType = "follow"
	NotificationFavorite NotificationType = "favorite"
	NotificationMessage  NotificationType = "message"
)

// Follow notification extra_data values.
const (
	FollowExtraPending  = "pending"
	FollowExtraAccepted = "accepted"
	FollowExtraRejected = "rejected"
)

// Notification is delivered to RecipientID about an action by SourceUserID.
type Notification struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	RecipientID  uint             `gorm:"not null;index:idx_notifications_recipient" json:"recipient_id"`
	SourceUserID uint             `gorm:"not null" json:"source_user_id"`
	SourceUser   User             `gorm:"foreignKey:SourceUserID" json:"source_user"`
	Type         NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	PostID       *uint            `json:"post_id,omitempty"`
	Post         *Post            `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CommentID    *uint            `json:"comment_id,omitempty"`
	ExtraData    string           `gorm:"type:text" json:"extra_data,omitempty"`
	IsRead       bool             `gorm:"not null;default:false;index:idx_notifications_recipient" json:"is_read"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ChatMessage is a message in the everyone room.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
