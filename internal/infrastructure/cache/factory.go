package cache

import (
	"fmt"
	"time"

	voucherapp "github.com/vres/backend/internal/application/voucher"
	"github.com/vres/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AttemptLimiterFactory creates attempt limiters based on configuration
type AttemptLimiterFactory struct {
	redisConfig           config.RedisConfig
	limit                 int
	window                time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// AttemptLimiterFactoryOption is a functional option for configuring the factory
type AttemptLimiterFactoryOption func(*AttemptLimiterFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) AttemptLimiterFactoryOption {
	return func(f *AttemptLimiterFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory
// limiter when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) AttemptLimiterFactoryOption {
	return func(f *AttemptLimiterFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewAttemptLimiterFactory creates a new factory
func NewAttemptLimiterFactory(cfg config.RedisConfig, limit int, window time.Duration, opts ...AttemptLimiterFactoryOption) *AttemptLimiterFactory {
	f := &AttemptLimiterFactory{
		redisConfig:           cfg,
		limit:                 limit,
		window:                window,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLimiter creates a Redis-backed attempt limiter
func (f *AttemptLimiterFactory) CreateRedisLimiter() (voucherapp.AttemptLimiter, error) {
	limiter, err := NewRedisAttemptLimiter(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.limit, f.window)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis attempt limiter: %w", err)
	}
	return limiter, nil
}

// CreateInMemoryLimiter creates an in-memory attempt limiter
func (f *AttemptLimiterFactory) CreateInMemoryLimiter() voucherapp.AttemptLimiter {
	return NewInMemoryAttemptLimiter(f.limit, f.window)
}

// CreateLimiter tries Redis first and falls back to in-memory when Redis is
// unavailable and fallback is allowed
func (f *AttemptLimiterFactory) CreateLimiter() (voucherapp.AttemptLimiter, error) {
	limiter, err := f.CreateRedisLimiter()
	if err == nil {
		f.logger.Info("using Redis attempt limiter")
		return limiter, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for attempt limiting but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory attempt limiter. "+
		"Attempt budgets will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryLimiter(), nil
}
