// Package feed decides which posts a viewer may see and assembles ranked,
// viewer-annotated post lists for profile pages, bookmarks, likes and the
// following timeline.
package feed

import (
	"time"

	"murmur/internal/models"
)

// Context selects which candidate posts a feed starts from.
type Context string

const (
	ContextProfileOriginals Context = "profile_originals"
	ContextProfileReposts   Context = "profile_reposts"
	ContextProfileCombined  Context = "profile_combined"
	ContextFavorites        Context = "favorites"
	ContextLiked            Context = "liked"
	ContextFollowing        Context = "following"
)

// RequiresViewer reports whether anonymous requests are rejected.
func (c Context) RequiresViewer() bool {
	switch c {
	case ContextFavorites, ContextLiked, ContextFollowing:
		return true
	}
	return false
}

// RequiresTarget reports whether the context is about another user's profile.
func (c Context) RequiresTarget() bool {
	switch c {
	case ContextProfileOriginals, ContextProfileReposts, ContextProfileCombined:
		return true
	}
	return false
}

// Sort is a feed ordering key.
type Sort string

const (
	SortLatest          Sort = "latest"
	SortOldest          Sort = "oldest"
	SortMostLiked       Sort = "most_liked"
	SortRepostedFriends Sort = "reposted_friends"
	SortFollowing       Sort = "following"
)

// ParseSort maps a query value to a Sort. Unknown values become SortLatest.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortOldest, SortMostLiked, SortRepostedFriends, SortFollowing:
		return Sort(s)
	}
	return SortLatest
}

// Request describes one feed computation.
type Request struct {
	Context      Context
	TargetUserID uint
	Viewer       *models.User
	Sort         Sort
	Limit        int
	Offset       int
}

// UserSummary is the compact user shape embedded in feed items.
type UserSummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image"`
	IsVerified   bool   `json:"is_verified"`
}

// Summarize builds a UserSummary from a loaded user.
func Summarize(u *models.User) UserSummary {
	return UserSummary{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		ProfileImage: u.ProfileImageURL(),
		IsVerified:   u.IsVerified,
	}
}

// MediaItem is a post attachment with its resolved URL.
type MediaItem struct {
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
	Disk     string `json:"disk"`
	URL      string `json:"url"`
}

// HashtagItem is a hashtag attached to a post.
type HashtagItem struct {
	ID      uint   `json:"id"`
	Hashtag string `json:"hashtag"`
}

// Item is an annotated post as returned to a particular viewer.
type Item struct {
	ID               uint          `json:"id"`
	Content          string        `json:"content"`
	CreatedAt        time.Time     `json:"created_at"`
	ParentPostID     *uint         `json:"parent_post_id,omitempty"`
	User             UserSummary   `json:"user"`
	Media            []MediaItem   `json:"media"`
	Hashtags         []HashtagItem `json:"hashtags"`
	IsPrivate        bool          `json:"is_private"`
	LikesCount       int64         `json:"likes_count"`
	IsLiked          bool          `json:"is_liked"`
	FavoritesCount   int64         `json:"favorites_count"`
	IsFavorited      bool          `json:"is_favorited"`
	CommentsCount    int64         `json:"comments_count"`
	RepostsCount     int64         `json:"reposts_count"`
	IsReposted       bool          `json:"is_reposted"`
	RepostedByYou    bool          `json:"reposted_by_you"` // same as IsReposted
	RepostedByUser   *UserSummary  `json:"reposted_by_user"`
	RepostedByRecent []UserSummary `json:"reposted_by_recent"`
}

// Feed is the composed result.
type Feed struct {
	Posts       []Item       `json:"posts"`
	Total       int          `json:"total"`
	Sort        Sort         `json:"sort"`
	CurrentUser *UserSummary `json:"current_user"`
}

// Counts holds engagement totals for one post.
type Counts struct {
	Likes     int64
	Favorites int64
	Comments  int64
}

// Marks are the posts the viewer personally liked, favorited or reposted.
type Marks struct {
	Liked     map[uint]bool
	Favorited map[uint]bool
	Reposted  map[uint]bool
}
