package scan

import (
	"context"
	"sync"
	"time"
)

// Handle controls a periodic background task. Stop is idempotent: it is safe
// to call multiple times, concurrently, and after the task has already
// finished on its own.
type Handle struct {
	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

// Every spawns fn on a fixed cadence until the handle is stopped or ctx is
// canceled. Invocations run on a single goroutine, so tick N always returns
// before tick N+1 begins; anything fn starts asynchronously is its own
// responsibility.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
	return h
}

// Stop cancels future ticks and waits for the current one to return.
// It does not cancel work fn handed off elsewhere.
func (h *Handle) Stop() {
	h.stopOnce.Do(h.cancel)
	<-h.done
}

// Done is closed once the task goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
