package service

import (
	"context"
	"testing"
	"time"

	"murmur/internal/feed"
	"murmur/internal/graph"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type followFixture struct {
	svc     *FollowService
	follows *followRepoStub
	notes   *notificationRepoStub
	pub     *recordingPublisher
	private map[uint]bool
}

func newFollowFixture() *followFixture {
	f := &followFixture{
		follows: newFollowRepoStub(),
		notes:   &notificationRepoStub{},
		pub:     &recordingPublisher{},
		private: map[uint]bool{},
	}
	users := &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, IsPrivate: f.private[id]}, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if username != "owner" {
				return nil, models.NewNotFoundError("User", username)
			}
			return &models.User{ID: 2, Username: "owner", IsPrivate: f.private[2]}, nil
		},
	}
	notes := NewNotificationService(f.notes, f.pub)
	f.svc = NewFollowService(f.follows, users, notes, f.pub)
	return f
}

func TestFollowService_FollowPublicAccount(t *testing.T) {
	f := newFollowFixture()

	status, err := f.svc.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FollowAccepted, status.State)
	assert.True(t, status.IsFollowing)
	assert.False(t, status.HasSentFollowRequest)
	assert.True(t, status.Changed)

	assert.Equal(t, []string{"follow"}, f.notes.types())
	assert.Equal(t, []sentEvent{
		{UserID: 2, Type: notifications.EventNotification},
		{UserID: 2, Type: notifications.EventUnreadCount},
	}, f.pub.sent())
}

func TestFollowService_FollowPrivateAccountIsPending(t *testing.T) {
	f := newFollowFixture()
	f.private[2] = true

	status, err := f.svc.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FollowPending, status.State)
	assert.False(t, status.IsFollowing)
	assert.True(t, status.HasSentFollowRequest)
	assert.Equal(t, []string{"follow:pending"}, f.notes.types())
}

func TestFollowService_FollowTwiceChangesNothing(t *testing.T) {
	f := newFollowFixture()
	ctx := context.Background()

	_, err := f.svc.Follow(ctx, 1, 2)
	require.NoError(t, err)
	status, err := f.svc.Follow(ctx, 1, 2)
	require.NoError(t, err)

	assert.False(t, status.Changed)
	assert.True(t, status.IsFollowing)
	assert.Len(t, f.notes.types(), 1)
}

func TestFollowService_FollowSelf(t *testing.T) {
	f := newFollowFixture()

	_, err := f.svc.Follow(context.Background(), 1, 1)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestFollowService_FriendsAfterBothFollow(t *testing.T) {
	f := newFollowFixture()
	ctx := context.Background()

	_, err := f.svc.Follow(ctx, 1, 2)
	require.NoError(t, err)
	status, err := f.svc.Follow(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, status.IsFriend)
}

func TestFollowService_AcceptRequest(t *testing.T) {
	f := newFollowFixture()
	f.private[2] = true
	ctx := context.Background()

	_, err := f.svc.Follow(ctx, 1, 2)
	require.NoError(t, err)

	status, err := f.svc.Accept(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.UserID)
	assert.Equal(t, models.FollowAccepted, status.State)
	assert.True(t, status.Changed)

	assert.Equal(t, []string{models.FollowExtraAccepted}, f.notes.resolved)
	assert.Equal(t, []string{"follow:pending", "follow:accepted"}, f.notes.types())
	assert.Contains(t, f.pub.sent(), sentEvent{UserID: 1, Type: notifications.EventFollowUpdate})
	assert.Equal(t, models.FollowAccepted, f.follows.edges.State(1, 2))
}

func TestFollowService_RejectRequest(t *testing.T) {
	f := newFollowFixture()
	f.private[2] = true
	ctx := context.Background()

	_, err := f.svc.Follow(ctx, 1, 2)
	require.NoError(t, err)

	status, err := f.svc.Reject(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, graph.StateNone, status.State)
	assert.Equal(t, []string{models.FollowExtraRejected}, f.notes.resolved)
	assert.Equal(t, graph.StateNone, f.follows.edges.State(1, 2))
}

func TestFollowService_AnswerWithoutPendingRequest(t *testing.T) {
	f := newFollowFixture()
	ctx := context.Background()

	_, err := f.svc.Accept(ctx, 2, 1)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	f.follows.set(1, 2, models.FollowAccepted)
	_, err = f.svc.Reject(ctx, 2, 1)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Equal(t, models.FollowAccepted, f.follows.edges.State(1, 2))
}

func TestFollowService_UnfollowWithdrawsPendingRequest(t *testing.T) {
	f := newFollowFixture()
	f.private[2] = true
	ctx := context.Background()

	_, err := f.svc.Follow(ctx, 1, 2)
	require.NoError(t, err)

	status, err := f.svc.Unfollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, status.Changed)
	assert.Equal(t, graph.StateNone, status.State)
	assert.Equal(t, 1, f.notes.withdrew)

	status, err = f.svc.Unfollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, status.Changed)
	assert.Equal(t, 1, f.notes.withdrew)
}

func TestFollowService_ListsOfPrivateAccount(t *testing.T) {
	f := newFollowFixture()
	f.private[2] = true
	now := time.Now()
	f.follows.lists = map[repository.FollowList][]feed.Connection{
		repository.ListFollowers: {
			{User: models.User{ID: 5, Username: "old"}, Since: now.Add(-time.Hour)},
			{User: models.User{ID: 6, Username: "new"}, Since: now},
		},
	}
	ctx := context.Background()

	_, err := f.svc.Lists(ctx, 3, "owner", repository.ListFollowers, "")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	f.follows.set(3, 2, models.FollowAccepted)
	people, err := f.svc.Lists(ctx, 3, "owner", repository.ListFollowers, "")
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "new", people[0].Username)

	people, err = f.svc.Lists(ctx, 2, "owner", repository.ListFollowers, "oldest")
	require.NoError(t, err)
	assert.Equal(t, "old", people[0].Username)

	_, err = f.svc.Lists(ctx, 3, "nobody", repository.ListFollowers, "")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
