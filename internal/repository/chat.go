package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// ChatRepository stores everyone-room messages.
type ChatRepository interface {
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	// Recent returns up to limit of the newest messages in chronological order.
	Recent(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db    *gorm.DB
	media MediaResolver
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB, media MediaResolver) ChatRepository {
	return &chatRepository{db: db, media: media}
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).First(&msg.User, msg.UserID).Error; err != nil {
		return translate(err, "User", msg.UserID)
	}
	return attachUserMedia(ctx, r.db, r.media, &msg.User)
}

func (r *chatRepository) Recent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	users := make([]*models.User, len(msgs))
	for i := range msgs {
		users[i] = &msgs[i].User
	}
	if err := attachUserMedia(ctx, r.db, r.media, users...); err != nil {
		return nil, err
	}
	return msgs, nil
}
