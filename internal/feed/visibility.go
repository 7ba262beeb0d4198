package feed

import (
	"murmur/internal/graph"
	"murmur/internal/models"
	"murmur/internal/query"
)

// CanView reports whether viewerID (0 for anonymous) may see post. A post is
// visible when it is public, authored by the viewer, or authored by someone
// the viewer follows with an accepted edge. Nothing else grants access.
func CanView(viewerID uint, post *models.Post, edges graph.Edges) bool {
	if !post.IsPrivate {
		return true
	}
	if viewerID == 0 {
		return false
	}
	if post.UserID == viewerID {
		return true
	}
	return edges.Follows(viewerID, post.UserID)
}

const acceptedFollowOfAuthor = "SELECT 1 FROM follows WHERE follows.followee_id = posts.user_id AND follows.follower_id = ? AND follows.state = ?"

// VisibleTo is CanView as a query predicate over the posts table.
func VisibleTo(viewerID uint) query.Expr {
	if viewerID == 0 {
		return query.Named("visible_to_anonymous", query.Eq("posts.is_private", false))
	}
	return query.Named("visible_to_viewer", query.Or(
		query.Eq("posts.is_private", false),
		query.Eq("posts.user_id", viewerID),
		query.Exists(acceptedFollowOfAuthor, viewerID, models.FollowAccepted),
	))
}
