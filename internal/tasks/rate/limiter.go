// Package rate throttles queue work per identifier with a sliding window kept in redis.
package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimit struct {
	Window  time.Duration // e.g., 1 minute, 1 hour
	MaxJobs int           // max jobs per window
}

type QueueConfig struct {
	Name      string
	RateLimit RateLimit
}

type QueueRateLimiter struct {
	redis  *redis.Client
	config QueueConfig
}

func NewQueueRateLimiter(redis *redis.Client, config QueueConfig) *QueueRateLimiter {
	return &QueueRateLimiter{
		redis:  redis,
		config: config,
	}
}

// Window is the length of the sliding window.
func (qrl *QueueRateLimiter) Window() time.Duration {
	return qrl.config.RateLimit.Window
}

// Allow records one job for identifier and reports whether it fits in the current window.
// A non-positive MaxJobs disables the limit.
func (qrl *QueueRateLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	if qrl.config.RateLimit.MaxJobs <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("queue_rate_limit:%s:%s", qrl.config.Name, identifier)

	pipe := qrl.redis.Pipeline()
	now := time.Now()
	windowStart := now.Add(-qrl.config.RateLimit.Window).UnixNano()

	// Remove old entries
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// Count current window
	card := pipe.ZCard(ctx, key)

	// Add new entry; nanosecond members keep bursts within one second distinct
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})

	// Set expiration
	pipe.Expire(ctx, key, qrl.config.RateLimit.Window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	return card.Val() < int64(qrl.config.RateLimit.MaxJobs), nil
}
