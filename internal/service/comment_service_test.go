package service

import (
	"context"
	"strings"
	"testing"

	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentFixture() (*CommentService, *commentRepoStub, *notificationRepoStub, *followRepoStub) {
	comments := &commentRepoStub{}
	notes := &notificationRepoStub{}
	follows := newFollowRepoStub()
	posts := &postRepoStub{posts: map[uint]*models.Post{
		1: {ID: 1, UserID: 2, Content: "open"},
		2: {ID: 2, UserID: 2, Content: "closed", IsPrivate: true},
	}}
	return NewCommentService(comments, posts, follows, NewNotificationService(notes, nil)), comments, notes, follows
}

func TestCommentService_CreateNotifiesAuthor(t *testing.T) {
	svc, _, notes, _ := newCommentFixture()

	comment, err := svc.Create(context.Background(), CreateCommentInput{UserID: 1, PostID: 1, Content: " well said "})
	require.NoError(t, err)
	assert.Equal(t, "well said", comment.Content)
	assert.Equal(t, uint(1), comment.PostID)

	require.Len(t, notes.created, 1)
	n := notes.created[0]
	assert.Equal(t, models.NotificationComment, n.Type)
	assert.Equal(t, uint(2), n.RecipientID)
	assert.Equal(t, "well said", n.ExtraData)
	require.NotNil(t, n.CommentID)
	assert.Equal(t, comment.ID, *n.CommentID)
}

func TestCommentService_CreateOnOwnPostIsQuiet(t *testing.T) {
	svc, _, notes, _ := newCommentFixture()

	_, err := svc.Create(context.Background(), CreateCommentInput{UserID: 2, PostID: 2, Content: "note to self"})
	require.NoError(t, err)
	assert.Empty(t, notes.created)
}

func TestCommentService_CreateValidates(t *testing.T) {
	svc, comments, _, _ := newCommentFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCommentInput{UserID: 1, PostID: 1, Content: ""})
	assert.True(t, models.IsCode(err, models.CodeValidation))
	_, err = svc.Create(ctx, CreateCommentInput{UserID: 1, PostID: 1, Content: strings.Repeat("y", 2001)})
	assert.True(t, models.IsCode(err, models.CodeValidation))
	_, err = svc.Create(ctx, CreateCommentInput{UserID: 1, PostID: 2, Content: "let me in"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.Empty(t, comments.comments)
}

func TestCommentService_ListChecksVisibility(t *testing.T) {
	svc, comments, _, follows := newCommentFixture()
	comments.listFn = func(_ context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
		return []models.Comment{{ID: 1, PostID: postID}}, nil
	}
	ctx := context.Background()

	_, err := svc.List(ctx, 1, 2, 20, 0)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	follows.set(1, 2, models.FollowAccepted)
	list, err := svc.List(ctx, 1, 2, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
