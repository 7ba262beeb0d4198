package feed

import (
	"sort"

	"murmur/internal/graph"
	"murmur/internal/models"
)

// MaxRecentReposters bounds the reposted_by_recent list.
const MaxRecentReposters = 3

// SortPosts orders posts in place. most_liked is stable relative to the
// latest ordering; reposted_friends and following are filtered beforehand
// and ordered as latest.
func SortPosts(posts []models.Post, key Sort, counts map[uint]Counts) {
	switch key {
	case SortOldest:
		sort.SliceStable(posts, func(i, j int) bool {
			if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
				return posts[i].ID < posts[j].ID
			}
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		})
	case SortMostLiked:
		sortLatest(posts)
		sort.SliceStable(posts, func(i, j int) bool {
			return counts[posts[i].ID].Likes > counts[posts[j].ID].Likes
		})
	default:
		sortLatest(posts)
	}
}

func sortLatest(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// AuthoredByFollowed keeps posts whose author viewerID follows.
func AuthoredByFollowed(posts []models.Post, viewerID uint, edges graph.Edges) []models.Post {
	out := posts[:0]
	for _, p := range posts {
		if viewerID != 0 && edges.Follows(viewerID, p.UserID) {
			out = append(out, p)
		}
	}
	return out
}

// Union concatenates post sets keeping the first occurrence of each id.
func Union(sets ...[]models.Post) []models.Post {
	seen := make(map[uint]struct{})
	var out []models.Post
	for _, set := range sets {
		for _, p := range set {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// byRecency returns reposts newest first.
func byRecency(reposts []models.Repost) []models.Repost {
	out := append([]models.Repost(nil), reposts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// RecentReposters picks up to limit reposters of a post other than its
// author. Reposters with an accepted follow edge to or from the viewer come
// first; within each group the most recent repost wins.
func RecentReposters(reposts []models.Repost, authorID, viewerID uint, edges graph.Edges, limit int) []models.User {
	ordered := byRecency(reposts)
	var near, far []models.User
	for _, r := range ordered {
		if r.UserID == authorID {
			continue
		}
		if viewerID != 0 && edges.Connected(viewerID, r.UserID) {
			near = append(near, r.User)
		} else {
			far = append(far, r.User)
		}
	}
	out := append(near, far...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ReposterOtherThanAuthor returns the most recent reposter who is not the
// post's author, or nil.
func ReposterOtherThanAuthor(reposts []models.Repost, authorID uint) *models.User {
	for _, r := range byRecency(reposts) {
		if r.UserID != authorID {
			u := r.User
			return &u
		}
	}
	return nil
}
