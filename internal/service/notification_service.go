package service

import (
	"context"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
)

// NotificationService stores notifications, renders them for the recipient
// and pushes them to connected sockets.
type NotificationService struct {
	repo repository.NotificationRepository
	pub  Publisher
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(repo repository.NotificationRepository, pub Publisher) *NotificationService {
	return &NotificationService{repo: repo, pub: publisherOrNop(pub)}
}

// Notify stores n and pushes it to the recipient. Users are never notified
// about their own actions.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.RecipientID == 0 || n.RecipientID == n.SourceUserID {
		return nil
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	stored, err := s.repo.GetByID(ctx, n.RecipientID, n.ID)
	if err != nil {
		// the row exists; only the push is lost
		middleware.Logger.WarnContext(ctx, "load notification for push", "notification_id", n.ID, "error", err)
		return nil
	}
	view := notifications.View{Notification: *stored, Rendered: notifications.Render(stored)}
	s.pub.ToUser(ctx, n.RecipientID, notifications.NewEvent(notifications.EventNotification, view))
	s.pushUnread(ctx, n.RecipientID)
	return nil
}

// NotifyQuietly is Notify for side effects of a user action that already
// succeeded: failures are logged, not returned.
func (s *NotificationService) NotifyQuietly(ctx context.Context, n *models.Notification) {
	if err := s.Notify(ctx, n); err != nil {
		middleware.Logger.ErrorContext(ctx, "create notification", "type", n.Type, "recipient_id", n.RecipientID, "error", err)
	}
}

// List returns the recipient's notifications newest first, rendered.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]notifications.View, error) {
	list, err := s.repo.List(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	return notifications.Views(list), nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	return s.setRead(ctx, userID, id, true)
}

// MarkUnread marks one notification unread.
func (s *NotificationService) MarkUnread(ctx context.Context, userID, id uint) error {
	return s.setRead(ctx, userID, id, false)
}

func (s *NotificationService) setRead(ctx context.Context, userID, id uint, read bool) error {
	if err := s.repo.SetRead(ctx, userID, id, read); err != nil {
		return err
	}
	s.pushUnread(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushUnread(ctx, userID)
	return n, nil
}

// ResolveFollowRequest records the owner's answer on the pending request
// notification they received from requesterID.
func (s *NotificationService) ResolveFollowRequest(ctx context.Context, ownerID, requesterID uint, extra string) error {
	if err := s.repo.ResolveFollowRequest(ctx, ownerID, requesterID, extra); err != nil {
		return err
	}
	s.pushUnread(ctx, ownerID)
	return nil
}

// WithdrawFollowRequest removes the pending request notification after the
// requester cancels.
func (s *NotificationService) WithdrawFollowRequest(ctx context.Context, ownerID, requesterID uint) error {
	if err := s.repo.WithdrawFollowRequest(ctx, ownerID, requesterID); err != nil {
		return err
	}
	s.pushUnread(ctx, ownerID)
	return nil
}

func (s *NotificationService) pushUnread(ctx context.Context, userID uint) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "count unread notifications", "user_id", userID, "error", err)
		return
	}
	s.pub.ToUser(ctx, userID, notifications.NewEvent(notifications.EventUnreadCount, map[string]int64{"count": count}))
}
