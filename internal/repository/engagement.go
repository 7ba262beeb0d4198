package repository

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/models"
	"murmur/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository persists like, favorite and repost edges. Creation is
// INSERT ... ON CONFLICT DO NOTHING and removal is a keyed DELETE, so a
// double submit leaves exactly one edge and never errors.
type EngagementRepository interface {
	Like(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (created bool, err error)
	Unlike(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (removed bool, err error)
	Favorite(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (created bool, err error)
	Unfavorite(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (removed bool, err error)
	Repost(ctx context.Context, userID, postID uint) (created bool, err error)
	Unrepost(ctx context.Context, userID, postID uint) (removed bool, err error)
	LikesCount(ctx context.Context, kind models.TargetKind, targetID uint) (int64, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) insert(ctx context.Context, edge string, row any, columns ...string) (bool, error) {
	cols := make([]clause.Column, len(columns))
	for i, c := range columns {
		cols[i] = clause.Column{Name: c}
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: cols, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			observability.RecordToggle(edge, "add", false)
			return false, nil
		}
		return false, models.NewInternalError(res.Error)
	}
	observability.RecordToggle(edge, "add", res.RowsAffected > 0)
	return res.RowsAffected > 0, nil
}

func (r *engagementRepository) remove(ctx context.Context, edge string, model any, where string, args ...any) (bool, error) {
	res := r.db.WithContext(ctx).Where(where, args...).Delete(model)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	observability.RecordToggle(edge, "remove", res.RowsAffected > 0)
	return res.RowsAffected > 0, nil
}

const targetEdge = "user_id = ? AND target_kind = ? AND target_id = ?"

func (r *engagementRepository) Like(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (bool, error) {
	return r.insert(ctx, "like", &models.Like{UserID: userID, TargetKind: kind, TargetID: targetID},
		"user_id", "target_kind", "target_id")
}

func (r *engagementRepository) Unlike(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (bool, error) {
	return r.remove(ctx, "like", &models.Like{}, targetEdge, userID, kind, targetID)
}

func (r *engagementRepository) Favorite(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (bool, error) {
	return r.insert(ctx, "favorite", &models.Favorite{UserID: userID, TargetKind: kind, TargetID: targetID},
		"user_id", "target_kind", "target_id")
}

func (r *engagementRepository) Unfavorite(ctx context.Context, userID uint, kind models.TargetKind, targetID uint) (bool, error) {
	return r.remove(ctx, "favorite", &models.Favorite{}, targetEdge, userID, kind, targetID)
}

func (r *engagementRepository) Repost(ctx context.Context, userID, postID uint) (bool, error) {
	created, err := r.insert(ctx, "repost", &models.Repost{UserID: userID, PostID: postID}, "user_id", "post_id")
	if created {
		cache.InvalidateStats(ctx, userID)
	}
	return created, err
}

func (r *engagementRepository) Unrepost(ctx context.Context, userID, postID uint) (bool, error) {
	removed, err := r.remove(ctx, "repost", &models.Repost{}, "user_id = ? AND post_id = ?", userID, postID)
	if removed {
		cache.InvalidateStats(ctx, userID)
	}
	return removed, err
}

func (r *engagementRepository) LikesCount(ctx context.Context, kind models.TargetKind, targetID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
