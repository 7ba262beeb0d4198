package service

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/repository"
)

// EngagementService toggles likes, favorites and reposts. Only a toggle that
// actually created an edge notifies the owner.
type EngagementService struct {
	edges         repository.EngagementRepository
	posts         repository.PostRepository
	comments      repository.CommentRepository
	graph         EdgeSource
	notifications *NotificationService
}

// NewEngagementService returns a new EngagementService.
func NewEngagementService(
	edges repository.EngagementRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	graph EdgeSource,
	notes *NotificationService,
) *EngagementService {
	return &EngagementService{edges: edges, posts: posts, comments: comments, graph: graph, notifications: notes}
}

// ToggleResult reports the edge state after a toggle.
type ToggleResult struct {
	Active  bool  `json:"active"`
	Changed bool  `json:"changed"`
	Count   int64 `json:"count,omitempty"`
}

// visiblePost loads postID and checks userID may see it. Hidden posts are
// reported as missing.
func (s *EngagementService) visiblePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	edges, err := viewerEdges(ctx, s.graph, userID)
	if err != nil {
		return nil, err
	}
	if !feed.CanView(userID, post, edges) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

func (s *EngagementService) notifyPostOwner(ctx context.Context, userID uint, post *models.Post, kind models.NotificationType) {
	postID := post.ID
	s.notifications.NotifyQuietly(ctx, &models.Notification{
		RecipientID:  post.UserID,
		SourceUserID: userID,
		Type:         kind,
		PostID:       &postID,
	})
}

// LikePost likes a post the user can see.
func (s *EngagementService) LikePost(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	created, err := s.edges.Like(ctx, userID, models.TargetPost, postID)
	if err != nil {
		return nil, err
	}
	if created {
		cache.InvalidateStats(ctx, post.UserID)
		s.notifyPostOwner(ctx, userID, post, models.NotificationLike)
	}
	return s.likeResult(ctx, models.TargetPost, postID, true, created)
}

// UnlikePost removes the user's like from a post.
func (s *EngagementService) UnlikePost(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	removed, err := s.edges.Unlike(ctx, userID, models.TargetPost, postID)
	if err != nil {
		return nil, err
	}
	if removed {
		cache.InvalidateStats(ctx, post.UserID)
	}
	return s.likeResult(ctx, models.TargetPost, postID, false, removed)
}

// FavoritePost bookmarks a post the user can see.
func (s *EngagementService) FavoritePost(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	created, err := s.edges.Favorite(ctx, userID, models.TargetPost, postID)
	if err != nil {
		return nil, err
	}
	if created {
		s.notifyPostOwner(ctx, userID, post, models.NotificationFavorite)
	}
	return &ToggleResult{Active: true, Changed: created}, nil
}

// UnfavoritePost removes a bookmark.
func (s *EngagementService) UnfavoritePost(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	removed, err := s.edges.Unfavorite(ctx, userID, models.TargetPost, postID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Active: false, Changed: removed}, nil
}

// Repost re-shares a post the user can see. Reposting a private post does
// not widen its audience: feeds filter it by the author's privacy.
func (s *EngagementService) Repost(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	post, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	created, err := s.edges.Repost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if created {
		s.notifyPostOwner(ctx, userID, post, models.NotificationRepost)
	}
	return &ToggleResult{Active: true, Changed: created}, nil
}

// Unrepost removes the user's repost.
func (s *EngagementService) Unrepost(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	removed, err := s.edges.Unrepost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Active: false, Changed: removed}, nil
}

// LikeComment likes a comment on a post the user can see. The notification
// quotes the comment.
func (s *EngagementService) LikeComment(ctx context.Context, userID, commentID uint) (*ToggleResult, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.visiblePost(ctx, userID, comment.PostID); err != nil {
		return nil, err
	}
	created, err := s.edges.Like(ctx, userID, models.TargetComment, commentID)
	if err != nil {
		return nil, err
	}
	if created {
		postID, cID := comment.PostID, comment.ID
		s.notifications.NotifyQuietly(ctx, &models.Notification{
			RecipientID:  comment.UserID,
			SourceUserID: userID,
			Type:         models.NotificationLike,
			PostID:       &postID,
			CommentID:    &cID,
			ExtraData:    comment.Content,
		})
	}
	return s.likeResult(ctx, models.TargetComment, commentID, true, created)
}

// UnlikeComment removes the user's like from a comment.
func (s *EngagementService) UnlikeComment(ctx context.Context, userID, commentID uint) (*ToggleResult, error) {
	removed, err := s.edges.Unlike(ctx, userID, models.TargetComment, commentID)
	if err != nil {
		return nil, err
	}
	return s.likeResult(ctx, models.TargetComment, commentID, false, removed)
}

func (s *EngagementService) likeResult(ctx context.Context, kind models.TargetKind, id uint, active, changed bool) (*ToggleResult, error) {
	count, err := s.edges.LikesCount(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Active: active, Changed: changed, Count: count}, nil
}
