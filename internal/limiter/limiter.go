// Package limiter counts code redemption attempts per caller in fixed windows.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	// Allow records one attempt for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
}

const keyPrefix = "coachlink:redeem:"

type RedisLimiter struct {
	client   redis.Cmdable
	attempts int64
	window   time.Duration
}

func NewRedisLimiter(client redis.Cmdable, attempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, attempts: int64(attempts), window: window}
}

// Allow increments the window counter and starts its expiry on first use. The window is
// fixed from the first attempt rather than sliding.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = keyPrefix + key

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to count attempt: %w", err)
	}
	return incr.Val() <= l.attempts, nil
}

// Nop allows everything. Used when no Redis is configured.
type Nop struct{}

func (Nop) Allow(context.Context, string) (bool, error) {
	return true, nil
}

// NewClient connects to the Redis at url and verifies it answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
