package cache

import (
	"context"
	"sync"
	"time"

	voucherapp "github.com/vres/backend/internal/application/voucher"
)

var _ voucherapp.AttemptLimiter = (*InMemoryAttemptLimiter)(nil)

type attemptWindow struct {
	count       int
	windowStart time.Time
}

// InMemoryAttemptLimiter throttles attempts with fixed windows held in
// process memory. Suitable for single-instance deployments and testing.
// Attempt budgets are not shared across instances.
type InMemoryAttemptLimiter struct {
	mu      sync.Mutex
	windows map[string]*attemptWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewInMemoryAttemptLimiter creates an in-memory limiter
func NewInMemoryAttemptLimiter(limit int, window time.Duration) *InMemoryAttemptLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &InMemoryAttemptLimiter{
		windows: make(map[string]*attemptWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow counts one attempt against the key and reports whether it is still
// inside the window budget
func (l *InMemoryAttemptLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.windowStart) >= l.window {
		l.windows[key] = &attemptWindow{count: 1, windowStart: now}
		l.sweep(now)
		return true, nil
	}

	w.count++
	return w.count <= l.limit, nil
}

// sweep drops expired windows; called under the lock on window rollover
func (l *InMemoryAttemptLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.windowStart) >= l.window {
			delete(l.windows, key)
		}
	}
}
