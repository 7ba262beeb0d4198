package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/repository"
)

const (
	maxPostLength    = 5000
	maxHashtagLength = 100
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns the distinct normalized #words of content in order
// of first appearance.
func ExtractHashtags(content string) []string {
	seen := map[string]bool{}
	var tags []string
	for _, m := range hashtagPattern.FindAllStringSubmatch(content, -1) {
		tag := repository.NormalizeHashtag(m[1])
		if tag == "" || utf8.RuneCountInString(tag) > maxHashtagLength || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// PostService creates, reads and deletes posts.
type PostService struct {
	posts         repository.PostRepository
	store         feed.Store
	notifications *NotificationService
}

// NewPostService returns a new PostService.
func NewPostService(posts repository.PostRepository, store feed.Store, notes *NotificationService) *PostService {
	return &PostService{posts: posts, store: store, notifications: notes}
}

// CreatePostInput is the input for creating a post or a reply.
type CreatePostInput struct {
	UserID       uint
	Content      string
	ParentPostID *uint
	IsPrivate    *bool // nil takes the author's setting
}

// Create stores a post with the hashtags found in its content. A reply
// notifies the parent's author with a comment notification.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*feed.Item, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxPostLength {
		return nil, models.NewValidationError("Content is too long (max 5000 characters)")
	}

	var parent *models.Post
	if in.ParentPostID != nil {
		p, err := s.visible(ctx, in.UserID, *in.ParentPostID)
		if err != nil {
			return nil, err
		}
		parent = p
	}

	private, err := s.privacyFor(ctx, in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:       in.UserID,
		Content:      content,
		ParentPostID: in.ParentPostID,
		IsPrivate:    private,
	}
	if err := s.posts.Create(ctx, post, ExtractHashtags(content)); err != nil {
		return nil, err
	}

	if parent != nil {
		parentID := parent.ID
		s.notifications.NotifyQuietly(ctx, &models.Notification{
			RecipientID:  parent.UserID,
			SourceUserID: in.UserID,
			Type:         models.NotificationComment,
			PostID:       &parentID,
			ExtraData:    content,
		})
	}
	return s.Get(ctx, in.UserID, post.ID)
}

// privacyFor snapshots the author's privacy unless the request chose one.
func (s *PostService) privacyFor(ctx context.Context, in CreatePostInput) (bool, error) {
	if in.IsPrivate != nil {
		return *in.IsPrivate, nil
	}
	author, err := s.store.User(ctx, in.UserID)
	if err != nil {
		return false, err
	}
	return author.IsPrivate, nil
}

// Get returns the post annotated for viewerID. Posts the viewer may not see
// are reported as missing.
func (s *PostService) Get(ctx context.Context, viewerID, postID uint) (*feed.Item, error) {
	post, err := s.visible(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	edges, err := viewerEdges(ctx, s.store, viewerID)
	if err != nil {
		return nil, err
	}
	ids := []uint{post.ID}
	counts, err := s.store.Counts(ctx, ids)
	if err != nil {
		return nil, err
	}
	reposts, err := s.store.Reposts(ctx, ids)
	if err != nil {
		return nil, err
	}
	marks := feed.Marks{}
	if viewerID != 0 {
		if marks, err = s.store.Marks(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}
	item := feed.Annotate(post, viewerID, edges, counts[post.ID], reposts, marks)
	return &item, nil
}

// Delete removes one of the user's own posts.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}
	return s.posts.Delete(ctx, postID)
}

func (s *PostService) visible(ctx context.Context, viewerID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	edges, err := viewerEdges(ctx, s.store, viewerID)
	if err != nil {
		return nil, err
	}
	if !feed.CanView(viewerID, post, edges) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}
