package repository

import (
	"context"
	"strings"

	"murmur/internal/cache"
	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	// Create stores post and links it to tags, creating missing hashtags.
	Create(ctx context.Context, post *models.Post, tags []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db    *gorm.DB
	media MediaResolver
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, media MediaResolver) PostRepository {
	return &postRepository{db: db, media: media}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tags []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Hashtags", "User").Create(post).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		rows := make([]models.Hashtag, len(tags))
		for i, t := range tags {
			rows[i] = models.Hashtag{Hashtag: t}
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hashtag"}},
			DoNothing: true,
		}).Create(&rows).Error; err != nil {
			return err
		}
		var hashtags []models.Hashtag
		if err := tx.Where("hashtag IN ?", tags).Order("id ASC").Find(&hashtags).Error; err != nil {
			return err
		}
		if err := tx.Model(post).Association("Hashtags").Append(&hashtags); err != nil {
			return err
		}
		post.Hashtags = hashtags
		return nil
	})
	if err != nil {
		return translate(err, "Post", post.ID)
	}
	cache.InvalidateStats(ctx, post.UserID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	db := r.db.WithContext(ctx)
	if err := db.Preload("User").Preload("Hashtags").First(&post, id).Error; err != nil {
		return nil, translate(err, "Post", id)
	}
	if err := attachUserMedia(ctx, r.db, r.media, &post.User); err != nil {
		return nil, err
	}
	posts := []models.Post{post}
	if err := attachPostMedia(ctx, r.db, r.media, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// Delete soft-deletes the post and hard-deletes the edges pointing at it.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	var userID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, id).Error; err != nil {
			return err
		}
		userID = post.UserID
		if err := tx.Where("post_id = ?", id).Delete(&models.Repost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_kind = ? AND target_id = ?", models.TargetPost, id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_kind = ? AND target_id = ?", models.TargetPost, id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{ID: id}).Association("Hashtags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return translate(err, "Post", id)
	}
	cache.InvalidateStats(ctx, userID)
	return nil
}

// NormalizeHashtag lowercases tag and strips the leading #.
func NormalizeHashtag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
