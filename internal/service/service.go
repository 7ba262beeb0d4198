// Package service provides application business logic (feeds, profiles,
// follows, engagement, notifications, chat) on top of the repositories.
package service

import (
	"context"

	"murmur/internal/graph"
	"murmur/internal/notifications"
)

// Publisher delivers realtime events to connected users.
// *notifications.Realtime implements it.
type Publisher interface {
	ToUser(ctx context.Context, userID uint, event notifications.Event)
	ToEveryone(ctx context.Context, event notifications.Event)
}

// EdgeSource loads every follow edge touching a user.
type EdgeSource interface {
	Edges(ctx context.Context, userID uint) (graph.Edges, error)
}

func viewerEdges(ctx context.Context, src EdgeSource, viewerID uint) (graph.Edges, error) {
	if viewerID == 0 {
		return graph.Edges{}, nil
	}
	return src.Edges(ctx, viewerID)
}

type nopPublisher struct{}

func (nopPublisher) ToUser(context.Context, uint, notifications.Event) {}
func (nopPublisher) ToEveryone(context.Context, notifications.Event)   {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
