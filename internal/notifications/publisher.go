package notifications

import (
	"context"

	"murmur/internal/middleware"
)

// Realtime delivers events to connected sockets. With Redis configured the
// event goes through pub/sub so every instance's hub receives it, including
// this one through its subscriber; without Redis the local hub is used.
type Realtime struct {
	hub      *Hub
	notifier *Notifier
}

// NewRealtime returns a Realtime over hub and notifier. Either may be nil.
func NewRealtime(hub *Hub, notifier *Notifier) *Realtime {
	return &Realtime{hub: hub, notifier: notifier}
}

// ToUser sends event to every socket userID has open.
func (r *Realtime) ToUser(ctx context.Context, userID uint, event Event) {
	payload, ok := r.encode(event)
	if !ok {
		return
	}
	if r.notifier.Enabled() {
		if err := r.notifier.PublishUser(ctx, userID, payload); err != nil {
			middleware.Logger.Error("publish user event", "type", event.Type, "user_id", userID, "error", err)
		}
		return
	}
	if r.hub != nil {
		r.hub.Broadcast(userID, payload)
	}
}

// ToEveryone sends event to every connected socket. Chat messages travel on
// the everyone-room channel, anything else on the broadcast channel.
func (r *Realtime) ToEveryone(ctx context.Context, event Event) {
	payload, ok := r.encode(event)
	if !ok {
		return
	}
	if r.notifier.Enabled() {
		var err error
		if event.Type == EventChatMessage {
			err = r.notifier.PublishChat(ctx, payload)
		} else {
			err = r.notifier.PublishBroadcast(ctx, payload)
		}
		if err != nil {
			middleware.Logger.Error("publish broadcast event", "type", event.Type, "error", err)
		}
		return
	}
	if r.hub != nil {
		r.hub.BroadcastAll(payload)
	}
}

func (r *Realtime) encode(event Event) (string, bool) {
	if r == nil {
		return "", false
	}
	payload, err := event.Encode()
	if err != nil {
		middleware.Logger.Error("encode realtime event", "type", event.Type, "error", err)
		return "", false
	}
	return payload, true
}
