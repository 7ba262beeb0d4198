package models

import "time"

// TargetKind tags the owner or target of a polymorphic row.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
	TargetUser    TargetKind = "user"
)

// Valid reports whether k names a known kind.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetPost, TargetComment, TargetUser:
		return true
	}
	return false
}

// FollowState is the state of a directed follow edge.
type FollowState string

const (
	FollowPending  FollowState = "pending"
	FollowAccepted FollowState = "accepted"
)

// Follow is a directed edge follower -> followee. At most one per ordered pair.
type Follow struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	FollowerID uint        `gorm:"not null;uniqueIndex:idx_follower_followee" json:"follower_id"`
	FolloweeID uint        `gorm:"not null;uniqueIndex:idx_follower_followee;index" json:"followee_id"`
	State      FollowState `gorm:"type:varchar(16);not null;default:'pending';index" json:"state"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}

// Like is a polymorphic like edge. At most one per (user, target).
type Like struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_like_user_target" json:"user_id"`
	TargetKind TargetKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_like_user_target;index:idx_like_target" json:"target_kind"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_like_user_target;index:idx_like_target" json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Favorite is a polymorphic bookmark edge. At most one per (user, target).
type Favorite struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_favorite_user_target" json:"user_id"`
	TargetKind TargetKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_favorite_user_target;index:idx_favorite_target" json:"target_kind"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_favorite_user_target;index:idx_favorite_target" json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Repost records that a user re-shared a post. At most one per (user, post).
type Repost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_repost_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_repost_user_post;index" json:"post_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
