package service

import (
	"context"

	"murmur/internal/feed"
	"murmur/internal/graph"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
)

// FollowService drives the follow state machine and tells both sides.
type FollowService struct {
	follows       repository.FollowRepository
	users         repository.UserRepository
	notifications *NotificationService
	pub           Publisher
}

// NewFollowService returns a new FollowService.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, notes *NotificationService, pub Publisher) *FollowService {
	return &FollowService{follows: follows, users: users, notifications: notes, pub: publisherOrNop(pub)}
}

// FollowStatus is the viewer's relation to another user after a change.
// For accept and reject, State is the requester's edge towards the viewer.
type FollowStatus struct {
	UserID               uint               `json:"user_id"`
	State                models.FollowState `json:"state"`
	IsFollowing          bool               `json:"is_following"`
	HasSentFollowRequest bool               `json:"has_sent_follow_request"`
	IsFriend             bool               `json:"is_friend"`
	Changed              bool               `json:"changed"`
}

// Follow requests to follow targetID. Public accounts are followed at once,
// private ones get a pending request. Repeating the call changes nothing.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (*FollowStatus, error) {
	if followerID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	current, err := s.follows.State(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	next, err := graph.Transition(current, graph.ActionRequest, target.IsPrivate)
	if err != nil {
		return nil, err
	}

	created := false
	if current == graph.StateNone {
		if created, next, err = s.follows.Request(ctx, followerID, targetID, next); err != nil {
			return nil, err
		}
	}
	if created {
		extra := ""
		if next == models.FollowPending {
			extra = models.FollowExtraPending
		}
		s.notifications.NotifyQuietly(ctx, &models.Notification{
			RecipientID:  targetID,
			SourceUserID: followerID,
			Type:         models.NotificationFollow,
			ExtraData:    extra,
		})
	}
	return s.status(ctx, followerID, targetID, created)
}

// Unfollow removes the edge followerID->targetID in any state. Cancelling a
// pending request also withdraws its notification.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) (*FollowStatus, error) {
	current, err := s.follows.State(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if _, err := graph.Transition(current, graph.ActionUnfollow, false); err != nil {
		return nil, err
	}
	changed, err := s.follows.Unfollow(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if changed && current == models.FollowPending {
		if err := s.notifications.WithdrawFollowRequest(ctx, targetID, followerID); err != nil {
			middleware.Logger.WarnContext(ctx, "withdraw follow request notification", "error", err)
		}
	}
	return s.status(ctx, followerID, targetID, changed)
}

// Accept approves requesterID's pending request to follow ownerID.
func (s *FollowService) Accept(ctx context.Context, ownerID, requesterID uint) (*FollowStatus, error) {
	return s.answer(ctx, ownerID, requesterID, graph.ActionAccept)
}

// Reject declines requesterID's pending request to follow ownerID.
func (s *FollowService) Reject(ctx context.Context, ownerID, requesterID uint) (*FollowStatus, error) {
	return s.answer(ctx, ownerID, requesterID, graph.ActionReject)
}

func (s *FollowService) answer(ctx context.Context, ownerID, requesterID uint, action graph.Action) (*FollowStatus, error) {
	current, err := s.follows.State(ctx, requesterID, ownerID)
	if err != nil {
		return nil, err
	}
	if current != models.FollowPending {
		return nil, models.NewValidationError("No pending follow request")
	}
	if _, err := graph.Transition(current, action, true); err != nil {
		return nil, err
	}

	var changed bool
	extra := models.FollowExtraAccepted
	if action == graph.ActionAccept {
		changed, err = s.follows.Accept(ctx, requesterID, ownerID)
	} else {
		extra = models.FollowExtraRejected
		changed, err = s.follows.Reject(ctx, requesterID, ownerID)
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, models.NewValidationError("No pending follow request")
	}

	if err := s.notifications.ResolveFollowRequest(ctx, ownerID, requesterID, extra); err != nil {
		middleware.Logger.WarnContext(ctx, "resolve follow request notification", "error", err)
	}
	s.notifications.NotifyQuietly(ctx, &models.Notification{
		RecipientID:  requesterID,
		SourceUserID: ownerID,
		Type:         models.NotificationFollow,
		ExtraData:    extra,
	})
	s.pub.ToUser(ctx, requesterID, notifications.NewEvent(notifications.EventFollowUpdate, map[string]any{
		"user_id": ownerID,
		"state":   extra,
	}))
	edges, err := s.follows.Edges(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &FollowStatus{
		UserID:      requesterID,
		State:       edges.State(requesterID, ownerID),
		IsFollowing: edges.Follows(ownerID, requesterID),
		IsFriend:    edges.IsFriend(ownerID, requesterID),
		Changed:     true,
	}, nil
}

// status describes viewerID's relation to otherID.
func (s *FollowService) status(ctx context.Context, viewerID, otherID uint, changed bool) (*FollowStatus, error) {
	edges, err := s.follows.Edges(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return &FollowStatus{
		UserID:               otherID,
		State:                edges.State(viewerID, otherID),
		IsFollowing:          edges.Follows(viewerID, otherID),
		HasSentFollowRequest: edges.Requested(viewerID, otherID),
		IsFriend:             edges.IsFriend(viewerID, otherID),
		Changed:              changed,
	}, nil
}

// Lists returns the followers, following or friends of the user named
// username, ordered by sort. Lists of private accounts are only shown to
// viewers who may see the full profile.
func (s *FollowService) Lists(ctx context.Context, viewerID uint, username string, list repository.FollowList, sort string) ([]feed.Person, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	edges, err := viewerEdges(ctx, s.follows, viewerID)
	if err != nil {
		return nil, err
	}
	if !feed.CanViewFullProfile(viewerID, user, edges) {
		return nil, models.NewUnauthorizedError("This account is private")
	}
	conns, err := s.follows.List(ctx, user.ID, list)
	if err != nil {
		return nil, err
	}
	return feed.People(conns, viewerID, edges, feed.ParsePeopleSort(sort)), nil
}
