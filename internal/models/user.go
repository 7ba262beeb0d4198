// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account in Murmur.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Username    string         `gorm:"uniqueIndex;not null" json:"username"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	Bio         string         `json:"bio"`
	Location    string         `json:"location"`
	Website     string         `json:"website"`
	DateOfBirth *time.Time     `json:"date_of_birth"`
	Status      string         `json:"status"`
	AvatarURL   string         `json:"avatar_url"`
	IsPrivate   bool           `gorm:"not null;default:false" json:"is_private"`
	IsVerified  bool           `gorm:"not null;default:false" json:"is_verified"`
	VerifiedAt  *time.Time     `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Loaded from media by owner; never persisted through the user row.
	ProfileImage *Media `gorm:"-" json:"profile_image,omitempty"`
	CoverImage   *Media `gorm:"-" json:"cover_image,omitempty"`
}

// ProfileImageURL returns the stored profile image URL, falling back to the
// identity-provider avatar.
func (u *User) ProfileImageURL() string {
	if u == nil {
		return ""
	}
	if u.ProfileImage != nil && u.ProfileImage.URL != "" {
		return u.ProfileImage.URL
	}
	return u.AvatarURL
}
