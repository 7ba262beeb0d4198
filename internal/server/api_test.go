package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/service"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileResponse struct {
	User  feed.Profile `json:"user"`
	Posts feed.Feed    `json:"posts"`
}

func TestPrivateAccount_FollowRequestFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	bob := env.user("bob", true)
	require.NoError(t, env.db.Model(bob).Update("bio", "secret bio").Error)
	aliceTok, bobTok := env.token(alice), env.token(bob)

	var created feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", bobTok,
		map[string]any{"content": "for friends only #quiet", "is_private": true}, &created))
	require.True(t, created.IsPrivate)
	require.Len(t, created.Hashtags, 1)
	assert.Equal(t, "quiet", created.Hashtags[0].Hashtag)

	// Strangers see a locked profile and cannot open the post.
	var locked profileResponse
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/users/bob", aliceTok, nil, &locked))
	assert.False(t, locked.User.CanViewFullProfile)
	assert.Nil(t, locked.User.Bio)
	assert.Empty(t, locked.Posts.Posts)
	postPath := fmt.Sprintf("/api/posts/%d", created.ID)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, postPath, aliceTok, nil, nil))
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, postPath, "", nil, nil))
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/users/bob/followers", aliceTok, nil, nil))

	var status service.FollowStatus
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), aliceTok, nil, &status))
	assert.Equal(t, models.FollowPending, status.State)
	assert.True(t, status.HasSentFollowRequest)
	assert.False(t, status.IsFollowing)

	// A pending request grants nothing.
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, postPath, aliceTok, nil, nil))

	var views []notifications.View
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications", bobTok, nil, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "follow_request", views[0].MessageKey)
	assert.Equal(t, alice.ID, views[0].SourceUserID)
	require.NotEmpty(t, views[0].Actions)
	assert.Equal(t, fmt.Sprintf("/api/follows/%d/accept", alice.ID), views[0].Actions[0].Href)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, fmt.Sprintf("/api/follows/%d/accept", alice.ID), bobTok, nil, &status))
	assert.True(t, status.Changed)

	var full profileResponse
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/users/bob", aliceTok, nil, &full))
	assert.True(t, full.User.CanViewFullProfile)
	assert.True(t, full.User.IsFollowing)
	require.NotNil(t, full.User.Bio)
	assert.Equal(t, "secret bio", *full.User.Bio)
	assert.Equal(t, int64(1), full.User.FollowersCount)

	var timeline feed.Feed
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/feed/following", aliceTok, nil, &timeline))
	require.Len(t, timeline.Posts, 1)
	assert.Equal(t, created.ID, timeline.Posts[0].ID)
	require.NotNil(t, timeline.CurrentUser)
	assert.Equal(t, alice.ID, timeline.CurrentUser.ID)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, postPath, aliceTok, nil, nil))

	// alice hears that the request was accepted.
	var count struct {
		Count int64 `json:"count"`
	}
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications/unread-count", aliceTok, nil, &count))
	assert.Equal(t, int64(1), count.Count)
}

func TestRejectFollow_RemovesRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	bob := env.user("bob", true)
	aliceTok, bobTok := env.token(alice), env.token(bob)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob.ID), aliceTok, nil, nil))

	var status service.FollowStatus
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, fmt.Sprintf("/api/follows/%d/reject", alice.ID), bobTok, nil, &status))
	assert.False(t, status.IsFollowing)
	assert.False(t, status.HasSentFollowRequest)

	var n int64
	require.NoError(t, env.db.Model(&models.Follow{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFollow_Self(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	assert.Equal(t, http.StatusBadRequest,
		env.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", alice.ID), env.token(alice), nil, nil))
}

func TestEngagement_LikeNotifiesAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	bob := env.user("bob", false)
	aliceTok, bobTok := env.token(alice), env.token(bob)

	var post feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", aliceTok,
		map[string]any{"content": "hello world"}, &post))
	likePath := fmt.Sprintf("/api/posts/%d/like", post.ID)

	var res service.ToggleResult
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, likePath, bobTok, nil, &res))
	assert.True(t, res.Active)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(1), res.Count)

	// Liking twice is a no-op.
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, likePath, bobTok, nil, &res))
	assert.False(t, res.Changed)

	var count struct {
		Count int64 `json:"count"`
	}
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications/unread-count", aliceTok, nil, &count))
	assert.Equal(t, int64(1), count.Count)

	var liked feed.Feed
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/feed/liked", bobTok, nil, &liked))
	require.Len(t, liked.Posts, 1)
	assert.True(t, liked.Posts[0].IsLiked)
	assert.Equal(t, int64(1), liked.Posts[0].LikesCount)

	var updated struct {
		Updated int64 `json:"updated"`
	}
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/notifications/read-all", aliceTok, nil, &updated))
	assert.Equal(t, int64(1), updated.Updated)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications/unread-count", aliceTok, nil, &count))
	assert.Zero(t, count.Count)

	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, likePath, bobTok, nil, &res))
	assert.False(t, res.Active)
	assert.True(t, res.Changed)
}

func TestRepost_ShowsOnReposterProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	bob := env.user("bob", false)
	aliceTok, bobTok := env.token(alice), env.token(bob)

	// bob has never reposted: no reposts page.
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/users/bob/reposts", "", nil, nil))

	var post feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", aliceTok,
		map[string]any{"content": "worth sharing"}, &post))
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/repost", post.ID), bobTok, nil, nil))

	var page profileResponse
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/users/bob/reposts", "", nil, &page))
	require.Len(t, page.Posts.Posts, 1)
	item := page.Posts.Posts[0]
	assert.Equal(t, post.ID, item.ID)
	require.NotNil(t, item.RepostedByUser)
	assert.Equal(t, bob.ID, item.RepostedByUser.ID)
	assert.Equal(t, int64(1), page.User.RepostsCount)
}

func TestComments_ListOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	bob := env.user("bob", false)
	aliceTok, bobTok := env.token(alice), env.token(bob)

	var post feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", aliceTok,
		map[string]any{"content": "discuss"}, &post))
	path := fmt.Sprintf("/api/posts/%d/comments", post.ID)

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, path, bobTok, map[string]any{"content": "first"}, nil))
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, path, aliceTok, map[string]any{"content": "second"}, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, path, bobTok, map[string]any{"content": "  "}, nil))

	var comments []models.Comment
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, path, "", nil, &comments))
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	var item feed.Item
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil, &item))
	assert.Equal(t, int64(2), item.CommentsCount)
}

func TestDeletePost_OnlyAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	bob := env.user("bob", false)
	aliceTok, bobTok := env.token(alice), env.token(bob)

	var post feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", aliceTok,
		map[string]any{"content": "mine"}, &post))
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, path, bobTok, nil, nil))
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, path, aliceTok, nil, nil))
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, aliceTok, nil, nil))
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(env.user("alice", false))

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/posts", tok, map[string]any{"content": ""}, nil))
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/posts", tok,
		map[string]any{"content": "reply", "parent_post_id": 999}, nil))
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/posts", "", map[string]any{"content": "x"}, nil))
}

func TestCreatePost_InheritsAccountPrivacy(t *testing.T) {
	env := newTestEnv(t)
	bob := env.user("bob", true)
	alice := env.user("alice", false)
	bobTok, aliceTok := env.token(bob), env.token(alice)

	var quiet feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", bobTok,
		map[string]any{"content": "only my followers"}, &quiet))
	assert.True(t, quiet.IsPrivate)
	path := fmt.Sprintf("/api/posts/%d", quiet.ID)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, aliceTok, nil, nil))
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, path, bobTok, nil, nil))

	var open feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", bobTok,
		map[string]any{"content": "announcement", "is_private": false}, &open))
	assert.False(t, open.IsPrivate)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", open.ID), "", nil, nil))

	var public feed.Item
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/posts", aliceTok,
		map[string]any{"content": "hello"}, &public))
	assert.False(t, public.IsPrivate)
}

func TestUserDirectory(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)
	env.user("alfred", false)
	env.user("bob", false)
	tok := env.token(alice)

	var people []feed.Person
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/users/search?q=al", tok, nil, &people))
	names := make([]string, 0, len(people))
	for _, p := range people {
		names = append(names, p.Username)
	}
	assert.ElementsMatch(t, []string{"alice", "alfred"}, names)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/users/suggestions", tok, nil, &people))
	for _, p := range people {
		assert.NotEqual(t, alice.ID, p.ID)
	}
}

func TestUpdateMe_JSON(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(env.user("alice", false))
	env.user("taken", false)

	var profile feed.Profile
	require.Equal(t, http.StatusOK, env.do(http.MethodPut, "/api/users/me", tok,
		map[string]any{"bio": "hi there", "is_private": true, "date_of_birth": "1990-05-01"}, &profile))
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "hi there", *profile.Bio)
	assert.True(t, profile.IsPrivate)
	require.NotNil(t, profile.DateOfBirth)
	assert.Equal(t, 1990, profile.DateOfBirth.Year())

	assert.Equal(t, http.StatusConflict, env.do(http.MethodPut, "/api/users/me", tok, map[string]any{"username": "taken"}, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/users/me", tok, map[string]any{"username": "No Spaces"}, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/users/me", tok, map[string]any{"date_of_birth": "yesterday"}, nil))
}

func TestUpdateMe_MultipartImage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user("alice", false)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("status", "painting"))
	part, err := w.CreateFormFile("profile_image", "me.png")
	require.NoError(t, err)
	_, err = part.Write(testutil.PNG(t, 64, 48))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/users/me", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token(alice))

	var profile feed.Profile
	require.Equal(t, http.StatusOK, env.send(req, &profile))
	require.NotNil(t, profile.Status)
	assert.Equal(t, "painting", *profile.Status)
	assert.Contains(t, profile.ProfileImage, "https://cdn.test/")
	assert.Contains(t, profile.ProfileImage, ".webp")

	var media []models.Media
	require.NoError(t, env.db.Where("owner_kind = ? AND owner_id = ?", models.TargetUser, alice.ID).Find(&media).Error)
	require.Len(t, media, 1)
	assert.Equal(t, models.MediaProfile, media[0].FileType)
}

func TestUpdateMe_RejectsNonImage(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("cover_image", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("just some text, not a picture"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/users/me", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token(env.user("alice", false)))
	assert.Equal(t, http.StatusBadRequest, env.send(req, nil))
}

func TestChat_SendAndHistory(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(env.user("alice", false))

	var msg models.ChatMessage
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/chat/everyone", tok, map[string]any{"content": "hey all"}, &msg))
	assert.Equal(t, "hey all", msg.Content)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/chat/everyone", tok, map[string]any{"content": ""}, nil))

	var history []models.ChatMessage
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/chat/everyone?limit=10", tok, nil, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].User.Username)
}

func TestUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	var body models.ErrorResponse
	require.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/users/ghost", "", nil, &body))
	assert.Equal(t, string(models.CodeNotFound), body.Code)
}
