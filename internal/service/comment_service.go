package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/repository"
)

const maxCommentLength = 2000

// CommentService provides comment business logic.
type CommentService struct {
	comments      repository.CommentRepository
	posts         repository.PostRepository
	graph         EdgeSource
	notifications *NotificationService
}

// NewCommentService returns a new CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, graph EdgeSource, notes *NotificationService) *CommentService {
	return &CommentService{comments: comments, posts: posts, graph: graph, notifications: notes}
}

// CreateCommentInput is the input for commenting on a post.
type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

func (s *CommentService) visiblePost(ctx context.Context, viewerID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	edges, err := viewerEdges(ctx, s.graph, viewerID)
	if err != nil {
		return nil, err
	}
	if !feed.CanView(viewerID, post, edges) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

// Create adds a comment to a post the user can see and notifies the post's
// author with the comment text.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, models.NewValidationError("Comment is too long (max 2000 characters)")
	}
	post, err := s.visiblePost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: in.UserID, PostID: post.ID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	postID, commentID := post.ID, comment.ID
	s.notifications.NotifyQuietly(ctx, &models.Notification{
		RecipientID:  post.UserID,
		SourceUserID: in.UserID,
		Type:         models.NotificationComment,
		PostID:       &postID,
		CommentID:    &commentID,
		ExtraData:    content,
	})
	return s.comments.GetByID(ctx, comment.ID)
}

// List returns the comments of a post the viewer can see, oldest first.
func (s *CommentService) List(ctx context.Context, viewerID, postID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := s.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID, limit, offset)
}
