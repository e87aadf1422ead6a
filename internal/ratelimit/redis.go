package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/senpaisearch/apiserver/config"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window limiter backed by Redis, for deployments
// running more than one replica. The window is the key's TTL: the first
// INCR creates the key and arms the expiry, later requests within the
// window only bump the counter.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	period time.Duration
}

// NewRedisLimiter constructs a limiter using the given Redis connection
// settings and window configuration.
func NewRedisLimiter(redisCfg config.RedisConfig, rateCfg config.RateLimitConfig) *RedisLimiter {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return &RedisLimiter{
		client: client,
		limit:  rateCfg.Limit,
		period: rateCfg.Period,
	}
}

// Allow implements Limiter. Unlike the memory backend, rejected requests
// still increment the counter; the key's TTL, not the count, bounds the
// window, so the set of allowed requests per window is the same.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	redisKey := redisKeyPrefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.period).Err(); err != nil {
			return fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	if count > int64(l.limit) {
		return ErrRateLimited
	}
	return nil
}

// Close releases the underlying Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
