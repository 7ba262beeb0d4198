package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error)
}

type commentRepository struct {
	db    *gorm.DB
	media MediaResolver
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB, media MediaResolver) CommentRepository {
	return &commentRepository{db: db, media: media}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return translate(err, "Comment", comment.ID)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translate(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns comments oldest first with their authors.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	db := readDB(r.db)
	tx := db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		tx = tx.Limit(limit).Offset(offset)
	}
	var comments []models.Comment
	if err := tx.Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	users := make([]*models.User, len(comments))
	for i := range comments {
		users[i] = &comments[i].User
	}
	if err := attachUserMedia(ctx, db, r.media, users...); err != nil {
		return nil, err
	}
	return comments, nil
}
