package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
)

const (
	maxChatMessageLength = 1000
	DefaultChatHistory   = 50
	MaxChatHistory       = 200
)

// ChatService runs the everyone room.
type ChatService struct {
	chat repository.ChatRepository
	pub  Publisher
}

// NewChatService returns a new ChatService.
func NewChatService(chat repository.ChatRepository, pub Publisher) *ChatService {
	return &ChatService{chat: chat, pub: publisherOrNop(pub)}
}

// Recent returns the latest messages in chronological order.
func (s *ChatService) Recent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultChatHistory
	}
	if limit > MaxChatHistory {
		limit = MaxChatHistory
	}
	return s.chat.Recent(ctx, limit)
}

// Send stores a message and broadcasts it to every connected socket.
func (s *ChatService) Send(ctx context.Context, userID uint, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if utf8.RuneCountInString(content) > maxChatMessageLength {
		return nil, models.NewValidationError("Message is too long (max 1000 characters)")
	}

	msg := &models.ChatMessage{UserID: userID, Content: content}
	if err := s.chat.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.pub.ToEveryone(ctx, notifications.NewEvent(notifications.EventChatMessage, msg))
	return msg, nil
}
