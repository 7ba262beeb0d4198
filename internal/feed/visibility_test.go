package feed

import (
	"testing"

	"murmur/internal/graph"
	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanView(t *testing.T) {
	const author, follower, requester, stranger = 1, 2, 3, 4
	edges := graph.NewEdges([]models.Follow{
		{FollowerID: follower, FolloweeID: author, State: models.FollowAccepted},
		{FollowerID: requester, FolloweeID: author, State: models.FollowPending},
		{FollowerID: author, FolloweeID: stranger, State: models.FollowAccepted},
	})
	private := &models.Post{UserID: author, IsPrivate: true}
	public := &models.Post{UserID: author}

	tests := []struct {
		name   string
		viewer uint
		post   *models.Post
		want   bool
	}{
		{"public anonymous", 0, public, true},
		{"public stranger", stranger, public, true},
		{"private anonymous", 0, private, false},
		{"private author", author, private, true},
		{"private accepted follower", follower, private, true},
		{"private pending requester", requester, private, false},
		{"private followed by author only", stranger, private, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.viewer, tt.post, edges))
		})
	}
}

func TestVisibleTo(t *testing.T) {
	sql, args := VisibleTo(0).SQL()
	assert.Equal(t, "posts.is_private = ?", sql)
	assert.Equal(t, []any{false}, args)

	sql, args = VisibleTo(7).SQL()
	assert.Contains(t, sql, "posts.is_private = ?")
	assert.Contains(t, sql, "posts.user_id = ?")
	assert.Contains(t, sql, "EXISTS (SELECT 1 FROM follows")
	assert.Equal(t, []any{false, uint(7), uint(7), models.FollowAccepted}, args)
}
