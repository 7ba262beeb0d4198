package models

import "time"

// Media file types.
const (
	MediaProfile = "profile"
	MediaCover   = "cover"
	MediaImage   = "image"
	MediaVideo   = "video"
)

// Media is a stored file owned by a user or a post.
type Media struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OwnerKind TargetKind `gorm:"type:varchar(16);not null;index:idx_media_owner" json:"-"`
	OwnerID   uint       `gorm:"not null;index:idx_media_owner" json:"-"`
	FilePath  string     `gorm:"not null" json:"file_path"`
	FileType  string     `gorm:"type:varchar(16);not null" json:"file_type"`
	Disk      string     `gorm:"type:varchar(16);not null" json:"disk"`
	CreatedAt time.Time  `json:"-"`

	URL string `gorm:"-" json:"url"`
}

// TableName keeps the plural form used by the rest of the schema.
func (Media) TableName() string {
	return "media"
}
