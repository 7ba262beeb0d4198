package repository

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository stores notifications per recipient.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, recipientID, id uint) (*models.Notification, error)
	List(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	SetRead(ctx context.Context, recipientID, id uint, read bool) error
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	// ResolveFollowRequest rewrites the pending follow notification from
	// sourceUserID to recipientID with the given extra_data.
	ResolveFollowRequest(ctx context.Context, recipientID, sourceUserID uint, extra string) error
	// WithdrawFollowRequest deletes a pending follow notification.
	WithdrawFollowRequest(ctx context.Context, recipientID, sourceUserID uint) error
}

type notificationRepository struct {
	db    *gorm.DB
	media MediaResolver
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB, media MediaResolver) NotificationRepository {
	return &notificationRepository{db: db, media: media}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Omit("SourceUser", "Post").Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	cache.InvalidateUnread(ctx, n.RecipientID)
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, recipientID, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).
		Preload("SourceUser").
		Where("recipient_id = ?", recipientID).
		First(&n, id).Error; err != nil {
		return nil, translate(err, "Notification", id)
	}
	if err := attachUserMedia(ctx, r.db, r.media, &n.SourceUser); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns notifications newest first. The primary is used so read
// state changes show up immediately.
func (r *notificationRepository) List(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	tx := r.db.WithContext(ctx).
		Preload("SourceUser").
		Preload("Post").
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		tx = tx.Where("is_read = ?", false)
	}
	tx = tx.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		tx = tx.Limit(limit).Offset(offset)
	}

	var list []models.Notification
	if err := tx.Find(&list).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	users := make([]*models.User, len(list))
	for i := range list {
		users[i] = &list[i].SourceUser
	}
	if err := attachUserMedia(ctx, r.db, r.media, users...); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.UnreadKey(recipientID), &count, cache.UnreadTTL, func() error {
		if err := r.db.WithContext(ctx).Model(&models.Notification{}).
			Where("recipient_id = ? AND is_read = ?", recipientID, false).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return count, err
}

func (r *notificationRepository) SetRead(ctx context.Context, recipientID, id uint, read bool) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", read)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	cache.InvalidateUnread(ctx, recipientID)
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	cache.InvalidateUnread(ctx, recipientID)
	return res.RowsAffected, nil
}

func (r *notificationRepository) ResolveFollowRequest(ctx context.Context, recipientID, sourceUserID uint, extra string) error {
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND source_user_id = ? AND type = ? AND extra_data = ?",
			recipientID, sourceUserID, models.NotificationFollow, models.FollowExtraPending).
		Updates(map[string]any{"extra_data": extra, "is_read": true}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUnread(ctx, recipientID)
	return nil
}

func (r *notificationRepository) WithdrawFollowRequest(ctx context.Context, recipientID, sourceUserID uint) error {
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND source_user_id = ? AND type = ? AND extra_data = ?",
			recipientID, sourceUserID, models.NotificationFollow, models.FollowExtraPending).
		Delete(&models.Notification{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUnread(ctx, recipientID)
	return nil
}
