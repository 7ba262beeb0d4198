package repository

import (
	"context"
	"errors"
	"time"

	"murmur/internal/cache"
	"murmur/internal/feed"
	"murmur/internal/graph"
	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowList names a user list derived from follow edges.
type FollowList string

const (
	ListFollowers FollowList = "followers"
	ListFollowing FollowList = "following"
	ListFriends   FollowList = "friends"
)

// FollowRepository persists directed follow edges. Every mutation is a
// single statement keyed by the (follower, followee) pair.
type FollowRepository interface {
	// State returns the state of follower->followee, graph.StateNone when absent.
	State(ctx context.Context, followerID, followeeID uint) (models.FollowState, error)
	// Request inserts the edge in state unless one exists. created reports
	// whether this call inserted it; state is the stored state afterwards.
	Request(ctx context.Context, followerID, followeeID uint, state models.FollowState) (created bool, stored models.FollowState, err error)
	// Accept moves a pending edge to accepted. changed is false when no
	// pending edge existed.
	Accept(ctx context.Context, followerID, followeeID uint) (changed bool, err error)
	// Reject deletes a pending edge.
	Reject(ctx context.Context, followerID, followeeID uint) (changed bool, err error)
	// Unfollow deletes the edge in any state.
	Unfollow(ctx context.Context, followerID, followeeID uint) (changed bool, err error)
	Edges(ctx context.Context, userID uint) (graph.Edges, error)
	List(ctx context.Context, userID uint, list FollowList) ([]feed.Connection, error)
}

type followRepository struct {
	db    *gorm.DB
	media MediaResolver
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB, media MediaResolver) FollowRepository {
	return &followRepository{db: db, media: media}
}

func (r *followRepository) State(ctx context.Context, followerID, followeeID uint) (models.FollowState, error) {
	var f models.Follow
	err := r.db.WithContext(ctx).
		Select("state").
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return graph.StateNone, nil
	}
	if err != nil {
		return graph.StateNone, models.NewInternalError(err)
	}
	return f.State, nil
}

func (r *followRepository) Request(ctx context.Context, followerID, followeeID uint, state models.FollowState) (bool, models.FollowState, error) {
	edge := models.Follow{FollowerID: followerID, FolloweeID: followeeID, State: state}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followee_id"}},
			DoNothing: true,
		}).
		Create(&edge)
	if res.Error != nil {
		return false, graph.StateNone, translate(res.Error, "Follow", followeeID)
	}
	if res.RowsAffected == 1 {
		cache.InvalidateStats(ctx, followerID, followeeID)
		cache.Invalidate(ctx, cache.SuggestionsKey(followerID))
		return true, state, nil
	}
	stored, err := r.State(ctx, followerID, followeeID)
	return false, stored, err
}

func (r *followRepository) Accept(ctx context.Context, followerID, followeeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ? AND state = ?", followerID, followeeID, models.FollowPending).
		Update("state", models.FollowAccepted)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateStats(ctx, followerID, followeeID)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Reject(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return r.delete(ctx, followerID, followeeID, models.FollowPending)
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return r.delete(ctx, followerID, followeeID, graph.StateNone)
}

func (r *followRepository) delete(ctx context.Context, followerID, followeeID uint, only models.FollowState) (bool, error) {
	tx := r.db.WithContext(ctx).Where("follower_id = ? AND followee_id = ?", followerID, followeeID)
	if only != graph.StateNone {
		tx = tx.Where("state = ?", only)
	}
	res := tx.Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateStats(ctx, followerID, followeeID)
		cache.Invalidate(ctx, cache.SuggestionsKey(followerID))
	}
	return res.RowsAffected > 0, nil
}

// Edges reads from the primary so a toggle is visible to the next request.
func (r *followRepository) Edges(ctx context.Context, userID uint) (graph.Edges, error) {
	var follows []models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? OR followee_id = ?", userID, userID).
		Find(&follows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return graph.NewEdges(follows), nil
}

type connectionRow struct {
	models.User
	FollowersCount int64
	Since          time.Time
}

// List returns the followers, following or friends of userID. Since is the
// creation time of the edge that puts the user on the list.
func (r *followRepository) List(ctx context.Context, userID uint, list FollowList) ([]feed.Connection, error) {
	db := readDB(r.db)
	tx := db.WithContext(ctx).Model(&models.User{}).
		Select(followersCountSelect+", f.created_at AS since", models.FollowAccepted)

	switch list {
	case ListFollowers:
		tx = tx.Joins("JOIN follows f ON f.follower_id = users.id").
			Where("f.followee_id = ? AND f.state = ?", userID, models.FollowAccepted)
	case ListFollowing:
		tx = tx.Joins("JOIN follows f ON f.followee_id = users.id").
			Where("f.follower_id = ? AND f.state = ?", userID, models.FollowAccepted)
	case ListFriends:
		tx = tx.Joins("JOIN follows f ON f.followee_id = users.id").
			Where("f.follower_id = ? AND f.state = ?", userID, models.FollowAccepted).
			Where(followsViewer, userID, models.FollowAccepted)
	default:
		return nil, models.NewValidationError("Unknown list")
	}

	var rows []connectionRow
	if err := tx.Order("f.created_at DESC").Order("users.id ASC").Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	users := make([]*models.User, len(rows))
	for i := range rows {
		users[i] = &rows[i].User
	}
	if err := attachUserMedia(ctx, db, r.media, users...); err != nil {
		return nil, err
	}
	out := make([]feed.Connection, 0, len(rows))
	for _, row := range rows {
		out = append(out, feed.Connection{User: row.User, Since: row.Since, Followers: row.FollowersCount})
	}
	return out, nil
}
