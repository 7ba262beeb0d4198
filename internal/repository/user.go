package repository

import (
	"context"
	"errors"
	"strings"

	"murmur/internal/cache"
	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/query"

	"gorm.io/gorm"
)

// UserSort orders the user directory and search results.
type UserSort string

const (
	UserSortNewest            UserSort = "newest"
	UserSortOldest            UserSort = "oldest"
	UserSortPopular           UserSort = "popular"
	UserSortLeastFollowed     UserSort = "least_followed"
	UserSortFollowing         UserSort = "following"
	UserSortFollowers         UserSort = "followers"
	UserSortMutualSubscribers UserSort = "mutual_subscribers"
)

// ParseUserSort maps a query value to a UserSort, defaulting to newest.
func ParseUserSort(s string) UserSort {
	switch UserSort(s) {
	case UserSortOldest, UserSortPopular, UserSortLeastFollowed,
		UserSortFollowing, UserSortFollowers, UserSortMutualSubscribers:
		return UserSort(s)
	}
	return UserSortNewest
}

// RequiresViewer reports whether the sort is relative to the viewer.
func (s UserSort) RequiresViewer() bool {
	switch s {
	case UserSortFollowing, UserSortFollowers, UserSortMutualSubscribers:
		return true
	}
	return false
}

// DirectoryQuery filters and orders the user directory.
type DirectoryQuery struct {
	ViewerID uint
	Search   string
	Sort     UserSort
	Limit    int
	Offset   int
}

const (
	followersCountSelect = "users.*, (SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id AND follows.state = ?) AS followers_count"
	viewerFollows        = "users.id IN (SELECT followee_id FROM follows WHERE follower_id = ? AND state = ?)"
	followsViewer        = "users.id IN (SELECT follower_id FROM follows WHERE followee_id = ? AND state = ?)"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Directory(ctx context.Context, q DirectoryQuery) ([]feed.Connection, error)
	Suggestions(ctx context.Context, viewerID uint, limit int) ([]feed.Connection, error)
	Stats(ctx context.Context, userID uint) (feed.ProfileStats, error)
}

type userRepository struct {
	db    *gorm.DB
	media MediaResolver
}

// NewUserRepository returns a new UserRepository implementation. media may be
// nil, in which case image URLs are left unresolved.
func NewUserRepository(db *gorm.DB, media MediaResolver) UserRepository {
	return &userRepository{db: db, media: media}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		db := readDB(r.db)
		if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
			return translate(err, "User", id)
		}
		return attachUserMedia(ctx, db, r.media, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.ProfileKey(username), &user, cache.UserTTL, func() error {
		db := readDB(r.db)
		if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
			return translate(err, "User", username)
		}
		return attachUserMedia(ctx, db, r.media, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil without error when no user has email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// UsernameExists includes soft-deleted accounts, which still hold the unique index.
func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().
		Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err, "User", user.Username)
	}
	return nil
}

// Update writes the editable profile columns of user.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	var previous models.User
	if err := r.db.WithContext(ctx).Select("id", "username").First(&previous, user.ID).Error; err != nil {
		return translate(err, "User", user.ID)
	}
	if err := r.db.WithContext(ctx).
		Model(user).
		Select("name", "username", "bio", "location", "website", "date_of_birth", "status", "is_private", "avatar_url", "is_verified", "verified_at").
		Updates(user).Error; err != nil {
		return translate(err, "User", user.Username)
	}
	cache.InvalidateUser(ctx, user.ID, previous.Username)
	if previous.Username != user.Username {
		cache.Invalidate(ctx, cache.ProfileKey(user.Username))
	}
	return nil
}

type userWithFollowers struct {
	models.User
	FollowersCount int64
}

func (r *userRepository) connections(ctx context.Context, db *gorm.DB, rows []userWithFollowers) ([]feed.Connection, error) {
	users := make([]*models.User, len(rows))
	for i := range rows {
		users[i] = &rows[i].User
	}
	if err := attachUserMedia(ctx, db, r.media, users...); err != nil {
		return nil, err
	}
	out := make([]feed.Connection, 0, len(rows))
	for _, row := range rows {
		out = append(out, feed.Connection{User: row.User, Since: row.CreatedAt, Followers: row.FollowersCount})
	}
	return out, nil
}

// Directory lists users matching q. Viewer-relative sorts need q.ViewerID.
func (r *userRepository) Directory(ctx context.Context, q DirectoryQuery) ([]feed.Connection, error) {
	if q.Sort.RequiresViewer() && q.ViewerID == 0 {
		return nil, models.NewUnauthorizedError("You must be logged in to use this filter")
	}

	filters := []query.Expr{}
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		pattern := "%" + term + "%"
		filters = append(filters, query.Or(
			query.Raw("LOWER(users.name) LIKE ?", pattern),
			query.Raw("LOWER(users.username) LIKE ?", pattern),
		))
	}
	switch q.Sort {
	case UserSortFollowing:
		filters = append(filters, query.Raw(viewerFollows, q.ViewerID, models.FollowAccepted))
	case UserSortFollowers:
		filters = append(filters, query.Raw(followsViewer, q.ViewerID, models.FollowAccepted))
	case UserSortMutualSubscribers:
		filters = append(filters,
			query.Raw(viewerFollows, q.ViewerID, models.FollowAccepted),
			query.Raw(followsViewer, q.ViewerID, models.FollowAccepted))
	}

	db := readDB(r.db)
	tx := query.Apply(db.WithContext(ctx).Model(&models.User{}).
		Select(followersCountSelect, models.FollowAccepted), query.And(filters...))

	switch q.Sort {
	case UserSortOldest:
		tx = tx.Order("users.created_at ASC").Order("users.id ASC")
	case UserSortPopular:
		tx = tx.Order("followers_count DESC").Order("users.id ASC")
	case UserSortLeastFollowed:
		tx = tx.Order("followers_count ASC").Order("users.id ASC")
	default:
		tx = tx.Order("users.created_at DESC").Order("users.id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var rows []userWithFollowers
	if err := tx.Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.connections(ctx, db, rows)
}

// Suggestions returns the most followed users the viewer has no edge to.
func (r *userRepository) Suggestions(ctx context.Context, viewerID uint, limit int) ([]feed.Connection, error) {
	var out []feed.Connection
	err := cache.Aside(ctx, cache.SuggestionsKey(viewerID), &out, cache.SuggestTTL, func() error {
		db := readDB(r.db)
		var rows []userWithFollowers
		tx := query.Apply(db.WithContext(ctx).Model(&models.User{}).
			Select(followersCountSelect, models.FollowAccepted), query.And(
			query.Ne("users.id", viewerID),
			query.Raw("users.id NOT IN (SELECT followee_id FROM follows WHERE follower_id = ?)", viewerID),
		))
		if err := tx.Order("followers_count DESC").Order("users.id ASC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		var err error
		out, err = r.connections(ctx, db, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats counts followers, following and reposts, and sums likes received on
// authored posts the user has not also reposted.
func (r *userRepository) Stats(ctx context.Context, userID uint) (feed.ProfileStats, error) {
	var stats feed.ProfileStats
	err := cache.Aside(ctx, cache.StatsKey(userID), &stats, cache.StatsTTL, func() error {
		db := readDB(r.db).WithContext(ctx)
		if err := db.Model(&models.Follow{}).
			Where("followee_id = ? AND state = ?", userID, models.FollowAccepted).
			Count(&stats.Followers).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := db.Model(&models.Follow{}).
			Where("follower_id = ? AND state = ?", userID, models.FollowAccepted).
			Count(&stats.Following).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := db.Model(&models.Repost{}).
			Where("user_id = ?", userID).
			Count(&stats.Reposts).Error; err != nil {
			return models.NewInternalError(err)
		}
		authored := db.Model(&models.Post{}).Select("id").
			Where("user_id = ? AND id NOT IN (?)", userID,
				db.Model(&models.Repost{}).Select("post_id").Where("user_id = ?", userID))
		if err := db.Model(&models.Like{}).
			Where("target_kind = ? AND target_id IN (?)", models.TargetPost, authored).
			Count(&stats.TotalLikes).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return stats, err
}
