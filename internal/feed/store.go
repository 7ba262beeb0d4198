package feed

import (
	"context"

	"murmur/internal/graph"
	"murmur/internal/models"
	"murmur/internal/query"
)

// Source names a candidate post set.
type Source string

const (
	SourceAuthoredBy      Source = "authored_by"
	SourceRepostedBy      Source = "reposted_by"
	SourceLikedBy         Source = "liked_by"
	SourceFavoritedBy     Source = "favorited_by"
	SourceFollowedAuthors Source = "followed_authors"
)

// Selection asks the store for candidate posts.
type Selection struct {
	Source  Source
	UserID  uint
	Visible query.Expr
}

// Store is the data source the composer reads from.
type Store interface {
	// User loads a user with profile media, NotFound when absent.
	User(ctx context.Context, id uint) (*models.User, error)
	// Candidates returns every post matching sel with only ID, UserID,
	// IsPrivate and CreatedAt set. The set is not truncated so sorting sees
	// all of it.
	Candidates(ctx context.Context, sel Selection) ([]models.Post, error)
	// Posts loads the given posts with authors, hashtags and media attached,
	// in any order. Missing ids are skipped.
	Posts(ctx context.Context, ids []uint) ([]models.Post, error)
	// Counts returns like, favorite and comment totals keyed by post id.
	Counts(ctx context.Context, postIDs []uint) (map[uint]Counts, error)
	// Reposts returns repost edges for the posts with reposting users loaded.
	Reposts(ctx context.Context, postIDs []uint) ([]models.Repost, error)
	// Marks returns which of the posts the viewer liked, favorited or reposted.
	Marks(ctx context.Context, viewerID uint, postIDs []uint) (Marks, error)
	// Edges returns every follow edge in which userID is either endpoint.
	Edges(ctx context.Context, userID uint) (graph.Edges, error)
}
