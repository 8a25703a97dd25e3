package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The counter and its expiry are set in one script so concurrent instances agree
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// RedisLimiter shares counters between instances through Redis
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	window    time.Duration
}

func NewRedisLimiter(client redis.Cmdable, keyPrefix string, rate int, window time.Duration) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		rate:      rate,
		window:    window,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	values, err := fixedWindowScript.Run(ctx, r.client, []string{r.keyPrefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit script failed: %w", err)
	}
	if len(values) != 2 {
		return Result{}, fmt.Errorf("redis rate limit script returned %d values", len(values))
	}

	count := int(values[0])
	retryAfter := time.Duration(values[1]) * time.Millisecond

	remaining := r.rate - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= r.rate, Remaining: remaining, RetryAfter: retryAfter}, nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

func (r *RedisLimiter) Limit() int {
	return r.rate
}

// Close is a no-op; the client is owned by the caller
func (r *RedisLimiter) Close() error {
	return nil
}
