package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoStore = errors.New("rate limit store not configured")

// RateLimitEnforced reports whether limits apply in env. Local, test and
// load-test environments are never throttled.
func RateLimitEnforced(env string) bool {
	switch env {
	case "", "test", "development", "stress":
		return false
	}
	return true
}

// Limiter keeps fixed-window counters in Redis under rl:<resource>:<caller>.
type Limiter struct {
	rdb      *redis.Client
	enforced bool
}

// NewLimiter returns a limiter for env. rdb may be nil; see FailPolicy.
func NewLimiter(rdb *redis.Client, env string) *Limiter {
	return &Limiter{rdb: rdb, enforced: RateLimitEnforced(env)}
}

// Allow counts one hit on resource for caller and reports whether it is still
// within limit for the current window.
func (l *Limiter) Allow(ctx context.Context, resource, caller string, limit int, window time.Duration) (bool, error) {
	if !l.enforced {
		return true, nil
	}
	if l.rdb == nil {
		return false, errNoStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, caller)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// Handler limits a route. Signed-in callers are counted per user, everyone
// else per IP.
func (l *Limiter) Handler(resource string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid := UserID(c); uid != 0 {
			caller = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := l.Allow(c.UserContext(), resource, caller, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}
		if !allowed {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
