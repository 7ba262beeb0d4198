package database

import "murmur/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Hashtag{},
		&models.Media{},
		&models.Follow{},
		&models.Like{},
		&models.Favorite{},
		&models.Repost{},
		&models.Notification{},
		&models.ChatMessage{},
	}
}
