package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	ProfileKeyPrefix = "profile:%s"
	StatsKeyPrefix   = "user:%d:stats"
	UnreadKeyPrefix  = "user:%d:unread"
	SuggestKeyPrefix = "user:%d:suggestions"
)

const (
	UserTTL    = 5 * time.Minute
	StatsTTL   = 2 * time.Minute
	UnreadTTL  = time.Minute
	SuggestTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, username)
}

func StatsKey(userID uint) string {
	return fmt.Sprintf(StatsKeyPrefix, userID)
}

func UnreadKey(userID uint) string {
	return fmt.Sprintf(UnreadKeyPrefix, userID)
}

func SuggestionsKey(userID uint) string {
	return fmt.Sprintf(SuggestKeyPrefix, userID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops everything cached about one user.
func InvalidateUser(ctx context.Context, userID uint, username string) {
	keys := []string{UserKey(userID), StatsKey(userID), SuggestionsKey(userID)}
	if username != "" {
		keys = append(keys, ProfileKey(username))
	}
	Invalidate(ctx, keys...)
}

// InvalidateStats drops follower/like totals, which change on every toggle.
func InvalidateStats(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, StatsKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidateUnread(ctx context.Context, userID uint) {
	Invalidate(ctx, UnreadKey(userID))
}
