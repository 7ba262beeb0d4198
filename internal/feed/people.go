package feed

import (
	"sort"
	"time"

	"murmur/internal/graph"
	"murmur/internal/models"
)

// PeopleSort orders user lists (friends, followers, following).
type PeopleSort string

const (
	PeopleLatest         PeopleSort = "latest"
	PeopleOldest         PeopleSort = "oldest"
	PeoplePopular        PeopleSort = "popular"
	PeopleLeastFollowers PeopleSort = "least_followers"
)

// ParsePeopleSort maps a query value to a PeopleSort, defaulting to latest.
func ParsePeopleSort(s string) PeopleSort {
	switch PeopleSort(s) {
	case PeopleOldest, PeoplePopular, PeopleLeastFollowers:
		return PeopleSort(s)
	}
	return PeopleLatest
}

// Connection is a user reached through a follow edge created at Since.
type Connection struct {
	User      models.User
	Since     time.Time
	Followers int64
}

// Person is a user list entry annotated for the viewer.
type Person struct {
	UserSummary
	IsPrivate            bool      `json:"is_private"`
	FollowersCount       int64     `json:"followers_count"`
	IsFollowed           bool      `json:"is_followed"`
	HasSentFollowRequest bool      `json:"has_sent_follow_request"`
	IsFriend             bool      `json:"is_friend"`
	Since                time.Time `json:"since"`
}

// People sorts conns and annotates each entry relative to viewerID.
func People(conns []Connection, viewerID uint, edges graph.Edges, key PeopleSort) []Person {
	ordered := append([]Connection(nil), conns...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch key {
		case PeopleOldest:
			return a.Since.Before(b.Since)
		case PeoplePopular:
			return a.Followers > b.Followers
		case PeopleLeastFollowers:
			return a.Followers < b.Followers
		default:
			return a.Since.After(b.Since)
		}
	})

	return Describe(ordered, viewerID, edges)
}

// Describe annotates conns relative to viewerID keeping their order.
func Describe(conns []Connection, viewerID uint, edges graph.Edges) []Person {
	out := make([]Person, 0, len(conns))
	for i := range conns {
		c := &conns[i]
		p := Person{
			UserSummary:    Summarize(&c.User),
			IsPrivate:      c.User.IsPrivate,
			FollowersCount: c.Followers,
			Since:          c.Since,
		}
		if viewerID != 0 && viewerID != c.User.ID {
			p.IsFollowed = edges.Follows(viewerID, c.User.ID)
			p.HasSentFollowRequest = edges.Requested(viewerID, c.User.ID)
			p.IsFriend = edges.IsFriend(viewerID, c.User.ID)
		}
		out = append(out, p)
	}
	return out
}
