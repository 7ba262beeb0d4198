package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb)
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	ctx := context.Background()
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PublishUser(ctx, 1, "test payload"))
	assert.NoError(t, n.PublishBroadcast(ctx, "test payload"))
	assert.NoError(t, n.PublishChat(ctx, "test payload"))
	assert.NoError(t, n.StartPatternSubscriber(ctx, func(string, string) {}))
}

func TestChannels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
	assert.Equal(t, "notifications:broadcast", BroadcastChannel())
	assert.Equal(t, "chat:everyone", EveryoneChatChannel())
}

func TestEvent_Encode(t *testing.T) {
	raw, err := NewEvent(EventUnreadCount, map[string]int{"count": 3}).Encode()
	require.NoError(t, err)

	var decoded struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, EventUnreadCount, decoded.Type)
	assert.Equal(t, 3, decoded.Payload["count"])
}

type received struct {
	channel string
	payload string
}

func TestNotifier_SubscriberReceivesAllChannels(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan received, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		got <- received{channel, payload}
	}))

	require.NoError(t, n.PublishUser(context.Background(), 7, "for-7"))
	require.NoError(t, n.PublishBroadcast(context.Background(), "for-all"))
	require.NoError(t, n.PublishChat(context.Background(), "hello room"))

	seen := map[string]string{}
	for len(seen) < 3 {
		select {
		case msg := <-got:
			seen[msg.channel] = msg.payload
		case <-time.After(time.Second):
			t.Fatalf("timed out, saw %v", seen)
		}
	}
	assert.Equal(t, "for-7", seen["notifications:user:7"])
	assert.Equal(t, "for-all", seen["notifications:broadcast"])
	assert.Equal(t, "hello room", seen["chat:everyone"])
}

func TestNotifier_SubscriberSurvivesHandlerPanic(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		if payload == "boom" {
			panic("handler failure")
		}
		got <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), 1, "boom"))
	require.NoError(t, n.PublishUser(context.Background(), 1, "after"))

	select {
	case payload := <-got:
		assert.Equal(t, "after", payload)
	case <-time.After(time.Second):
		t.Fatal("subscriber stopped after panic")
	}
}
