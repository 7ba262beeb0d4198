package feed

import (
	"time"

	"murmur/internal/graph"
	"murmur/internal/i18n"
	"murmur/internal/models"
)

// ProfileStats are the aggregate numbers shown on a profile.
type ProfileStats struct {
	Followers  int64
	Following  int64
	TotalLikes int64
	Reposts    int64
}

// Profile is a user profile as seen by a viewer. Fields that require a full
// profile view are nil when the viewer may not see them.
type Profile struct {
	ID                   uint       `json:"id"`
	Username             string     `json:"username"`
	Name                 string     `json:"name"`
	ProfileImage         string     `json:"profile_image"`
	IsVerified           bool       `json:"is_verified"`
	IsPrivate            bool       `json:"is_private"`
	Bio                  *string    `json:"bio"`
	CoverImage           *string    `json:"cover_image"`
	Location             *string    `json:"location"`
	Website              *string    `json:"website"`
	DateOfBirth          *time.Time `json:"date_of_birth"`
	Status               *string    `json:"status"`
	CreatedAt            *time.Time `json:"created_at"`
	FollowersCount       int64      `json:"followers_count"`
	FollowersString      string     `json:"followers_string"`
	FollowingCount       int64      `json:"following_count"`
	RepostsCount         int64      `json:"reposts_count"`
	TotalLikes           int64      `json:"total_likes"`
	IsFollowing          bool       `json:"is_following"`
	IsFriend             bool       `json:"is_friend"`
	HasSentFollowRequest bool       `json:"has_sent_follow_request"`
	CanViewFullProfile   bool       `json:"can_view_full_profile"`
}

// CanViewFullProfile reports whether viewerID may see the restricted fields
// of user: the account is public, it is the viewer's own, or the viewer
// follows it with an accepted edge.
func CanViewFullProfile(viewerID uint, user *models.User, edges graph.Edges) bool {
	if !user.IsPrivate {
		return true
	}
	if viewerID == 0 {
		return false
	}
	return viewerID == user.ID || edges.Follows(viewerID, user.ID)
}

// BuildProfile shapes user for viewerID. edges must contain the viewer's edges.
func BuildProfile(user *models.User, viewerID uint, edges graph.Edges, stats ProfileStats) Profile {
	p := Profile{
		ID:             user.ID,
		Username:       user.Username,
		Name:           user.Name,
		ProfileImage:   user.ProfileImageURL(),
		IsVerified:     user.IsVerified,
		IsPrivate:      user.IsPrivate,
		FollowersCount: stats.Followers,
		// TODO: pick the catalog from the Accept-Language header once a second locale ships.
		FollowersString:    i18n.Plural("followers_count", stats.Followers),
		FollowingCount:     stats.Following,
		RepostsCount:       stats.Reposts,
		TotalLikes:         stats.TotalLikes,
		CanViewFullProfile: CanViewFullProfile(viewerID, user, edges),
	}
	if viewerID != 0 && viewerID != user.ID {
		p.IsFollowing = edges.Follows(viewerID, user.ID)
		p.HasSentFollowRequest = edges.Requested(viewerID, user.ID)
		p.IsFriend = edges.IsFriend(viewerID, user.ID)
	}
	if p.CanViewFullProfile {
		p.Bio = &user.Bio
		p.Location = &user.Location
		p.Website = &user.Website
		p.Status = &user.Status
		p.DateOfBirth = user.DateOfBirth
		created := user.CreatedAt
		p.CreatedAt = &created
		if user.CoverImage != nil {
			url := user.CoverImage.URL
			p.CoverImage = &url
		}
	}
	return p
}
