// Package graph holds the follow-edge state machine and derived relations
// (friendship, following) as pure functions over already-fetched edges.
package graph

import (
	"murmur/internal/models"
)

// StateNone is the state of an ordered pair with no stored edge.
const StateNone models.FollowState = ""

// Action is a user-initiated change to a follow edge.
type Action string

const (
	ActionRequest  Action = "request"
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionUnfollow Action = "unfollow"
)

// Transition returns the state of the edge follower->followee after action.
// followeePrivate decides whether a new request waits for approval.
func Transition(current models.FollowState, action Action, followeePrivate bool) (models.FollowState, error) {
	switch action {
	case ActionRequest:
		if current != StateNone {
			return current, nil
		}
		if followeePrivate {
			return models.FollowPending, nil
		}
		return models.FollowAccepted, nil
	case ActionAccept:
		switch current {
		case models.FollowPending, models.FollowAccepted:
			return models.FollowAccepted, nil
		}
		return current, models.NewValidationError("No pending follow request")
	case ActionReject:
		if current != models.FollowPending {
			return current, models.NewValidationError("No pending follow request")
		}
		return StateNone, nil
	case ActionUnfollow:
		return StateNone, nil
	}
	return current, models.NewValidationError("Unknown follow action")
}

// IsFriend reports whether both directed edges are accepted.
func IsFriend(ab, ba models.FollowState) bool {
	return ab == models.FollowAccepted && ba == models.FollowAccepted
}

// Pair is an ordered (from, to) pair of user ids.
type Pair struct {
	From uint
	To   uint
}

// Edges is a fetched slice of the follow graph keyed by ordered pair.
type Edges map[Pair]models.FollowState

// NewEdges indexes follows by ordered pair.
func NewEdges(follows []models.Follow) Edges {
	e := make(Edges, len(follows))
	for _, f := range follows {
		e[Pair{From: f.FollowerID, To: f.FolloweeID}] = f.State
	}
	return e
}

// State returns the state of from->to, StateNone when absent.
func (e Edges) State(from, to uint) models.FollowState {
	return e[Pair{From: from, To: to}]
}

// Follows reports an accepted edge from->to.
func (e Edges) Follows(from, to uint) bool {
	return e.State(from, to) == models.FollowAccepted
}

// Requested reports a pending edge from->to.
func (e Edges) Requested(from, to uint) bool {
	return e.State(from, to) == models.FollowPending
}

// IsFriend reports accepted edges in both directions.
func (e Edges) IsFriend(a, b uint) bool {
	return IsFriend(e.State(a, b), e.State(b, a))
}

// Connected reports an accepted edge in either direction.
func (e Edges) Connected(a, b uint) bool {
	return e.Follows(a, b) || e.Follows(b, a)
}
