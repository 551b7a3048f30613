package notification

import (
	"context"
	"sync"
	"time"

	voucherapp "github.com/vres/backend/internal/application/voucher"
	"go.uber.org/zap"
)

var _ voucherapp.Dispatcher = (*AsyncDispatcher)(nil)

// AsyncDispatcher runs notification tasks on their own goroutines, detached
// from the request that triggered them. Each task gets a bounded context so
// a stuck provider cannot pile up goroutines forever.
type AsyncDispatcher struct {
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewAsyncDispatcher creates a dispatcher with the given per-task timeout
func NewAsyncDispatcher(timeout time.Duration, logger *zap.Logger) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncDispatcher{
		timeout: timeout,
		logger:  logger,
	}
}

// Dispatch runs the task asynchronously. A panicking task is recovered and
// logged; it never takes the server down.
func (d *AsyncDispatcher) Dispatch(name string, task func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Dispatched task panicked",
					zap.String("task", name),
					zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		task(ctx)
	}()
}

// Wait blocks until all in-flight tasks have finished. Called during
// graceful shutdown.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
