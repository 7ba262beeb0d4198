package repository

import (
	"context"
	"fmt"

	"murmur/internal/feed"
	"murmur/internal/graph"
	"murmur/internal/models"
	"murmur/internal/query"

	"gorm.io/gorm"
)

const (
	repostedBy      = "posts.id IN (SELECT post_id FROM reposts WHERE user_id = ?)"
	likedBy         = "posts.id IN (SELECT target_id FROM likes WHERE user_id = ? AND target_kind = ?)"
	favoritedBy     = "posts.id IN (SELECT target_id FROM favorites WHERE user_id = ? AND target_kind = ?)"
	followedAuthors = "posts.user_id IN (SELECT followee_id FROM follows WHERE follower_id = ? AND state = ?)"
)

type feedStore struct {
	db      *gorm.DB
	users   UserRepository
	follows FollowRepository
	media   MediaResolver
}

// NewFeedStore returns the gorm-backed source the feed composer reads from.
func NewFeedStore(db *gorm.DB, users UserRepository, follows FollowRepository, media MediaResolver) feed.Store {
	return &feedStore{db: db, users: users, follows: follows, media: media}
}

func (s *feedStore) User(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// SourceExpr is the candidate predicate for a source and user.
func SourceExpr(src feed.Source, userID uint) (query.Expr, error) {
	switch src {
	case feed.SourceAuthoredBy:
		return query.Eq("posts.user_id", userID), nil
	case feed.SourceRepostedBy:
		return query.Raw(repostedBy, userID), nil
	case feed.SourceLikedBy:
		return query.Raw(likedBy, userID, models.TargetPost), nil
	case feed.SourceFavoritedBy:
		return query.Raw(favoritedBy, userID, models.TargetPost), nil
	case feed.SourceFollowedAuthors:
		return query.Raw(followedAuthors, userID, models.FollowAccepted), nil
	}
	return nil, fmt.Errorf("unknown feed source %q", src)
}

// candidateColumns are the fields the composer filters and sorts on.
const candidateColumns = "posts.id, posts.user_id, posts.is_private, posts.created_at"

func (s *feedStore) Candidates(ctx context.Context, sel feed.Selection) ([]models.Post, error) {
	source, err := SourceExpr(sel.Source, sel.UserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var posts []models.Post
	err = query.Apply(readDB(s.db).WithContext(ctx).Model(&models.Post{}), query.And(source, sel.Visible)).
		Select(candidateColumns).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *feedStore) Posts(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := readDB(s.db)
	var posts []models.Post
	err := db.WithContext(ctx).
		Preload("User").
		Preload("Hashtags").
		Where("posts.id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	authors := make([]*models.User, len(posts))
	for i := range posts {
		authors[i] = &posts[i].User
	}
	if err := attachUserMedia(ctx, db, s.media, authors...); err != nil {
		return nil, err
	}
	if err := attachPostMedia(ctx, db, s.media, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

type countRow struct {
	ID    uint
	Total int64
}

// countChunk keeps IN lists under the bind parameter limits of sqlite and
// postgres.
const countChunk = 500

func (s *feedStore) countBy(ctx context.Context, db *gorm.DB, model any, idColumn string, where string, args ...any) ([]countRow, error) {
	var rows []countRow
	err := db.WithContext(ctx).Model(model).
		Select(idColumn+" AS id, COUNT(*) AS total").
		Where(where, args...).
		Group(idColumn).
		Scan(&rows).Error
	return rows, err
}

func (s *feedStore) Counts(ctx context.Context, postIDs []uint) (map[uint]feed.Counts, error) {
	out := make(map[uint]feed.Counts, len(postIDs))
	db := readDB(s.db)
	for start := 0; start < len(postIDs); start += countChunk {
		if err := s.countInto(ctx, db, postIDs[start:min(start+countChunk, len(postIDs))], out); err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	return out, nil
}

func (s *feedStore) countInto(ctx context.Context, db *gorm.DB, ids []uint, out map[uint]feed.Counts) error {
	likes, err := s.countBy(ctx, db, &models.Like{}, "target_id", "target_kind = ? AND target_id IN ?", models.TargetPost, ids)
	if err != nil {
		return err
	}
	favorites, err := s.countBy(ctx, db, &models.Favorite{}, "target_id", "target_kind = ? AND target_id IN ?", models.TargetPost, ids)
	if err != nil {
		return err
	}
	comments, err := s.countBy(ctx, db, &models.Comment{}, "post_id", "post_id IN ?", ids)
	if err != nil {
		return err
	}

	for _, r := range likes {
		c := out[r.ID]
		c.Likes = r.Total
		out[r.ID] = c
	}
	for _, r := range favorites {
		c := out[r.ID]
		c.Favorites = r.Total
		out[r.ID] = c
	}
	for _, r := range comments {
		c := out[r.ID]
		c.Comments = r.Total
		out[r.ID] = c
	}
	return nil
}

func (s *feedStore) Reposts(ctx context.Context, postIDs []uint) ([]models.Repost, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	db := readDB(s.db)
	var reposts []models.Repost
	if err := db.WithContext(ctx).
		Preload("User").
		Where("post_id IN ?", postIDs).
		Order("created_at DESC").
		Order("id DESC").
		Find(&reposts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	users := make([]*models.User, len(reposts))
	for i := range reposts {
		users[i] = &reposts[i].User
	}
	if err := attachUserMedia(ctx, db, s.media, users...); err != nil {
		return nil, err
	}
	return reposts, nil
}

// Marks reads from the primary so the viewer sees their own toggles at once.
func (s *feedStore) Marks(ctx context.Context, viewerID uint, postIDs []uint) (feed.Marks, error) {
	marks := feed.Marks{Liked: map[uint]bool{}, Favorited: map[uint]bool{}, Reposted: map[uint]bool{}}
	if viewerID == 0 || len(postIDs) == 0 {
		return marks, nil
	}
	db := s.db.WithContext(ctx)

	var ids []uint
	if err := db.Model(&models.Like{}).
		Where("user_id = ? AND target_kind = ? AND target_id IN ?", viewerID, models.TargetPost, postIDs).
		Pluck("target_id", &ids).Error; err != nil {
		return marks, models.NewInternalError(err)
	}
	for _, id := range ids {
		marks.Liked[id] = true
	}

	ids = nil
	if err := db.Model(&models.Favorite{}).
		Where("user_id = ? AND target_kind = ? AND target_id IN ?", viewerID, models.TargetPost, postIDs).
		Pluck("target_id", &ids).Error; err != nil {
		return marks, models.NewInternalError(err)
	}
	for _, id := range ids {
		marks.Favorited[id] = true
	}

	ids = nil
	if err := db.Model(&models.Repost{}).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return marks, models.NewInternalError(err)
	}
	for _, id := range ids {
		marks.Reposted[id] = true
	}
	return marks, nil
}

func (s *feedStore) Edges(ctx context.Context, userID uint) (graph.Edges, error) {
	return s.follows.Edges(ctx, userID)
}
