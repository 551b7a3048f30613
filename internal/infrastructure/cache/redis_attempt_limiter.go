// Package cache provides attempt throttling for the redemption endpoints.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	voucherapp "github.com/vres/backend/internal/application/voucher"
)

var _ voucherapp.AttemptLimiter = (*RedisAttemptLimiter)(nil)

// RedisAttemptLimiter throttles attempts with a fixed window counter in
// Redis. Suitable for distributed deployments where all instances must
// share the same attempt budget.
type RedisAttemptLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisAttemptLimiter creates a Redis-backed limiter and verifies the
// connection before returning
func NewRedisAttemptLimiter(cfg RedisConfig, limit int, window time.Duration) (*RedisAttemptLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAttemptLimiterWithClient(client, "", limit, window), nil
}

// NewRedisAttemptLimiterWithClient creates a limiter with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisAttemptLimiterWithClient(client *redis.Client, keyPrefix string, limit int, window time.Duration) *RedisAttemptLimiter {
	if keyPrefix == "" {
		keyPrefix = "attempts:"
	}
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisAttemptLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

// Allow counts one attempt against the key and reports whether it is still
// inside the window budget. INCR and the first-hit EXPIRE run in one
// pipeline so the counter can never live without a TTL.
func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	fullKey := l.keyPrefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count attempt: %w", err)
	}

	return incr.Val() <= int64(l.limit), nil
}

// Close closes the Redis client
func (l *RedisAttemptLimiter) Close() error {
	return l.client.Close()
}
