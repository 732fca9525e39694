package widget

import (
	"context"
	"sync"
	"time"
)

// refresher runs a widget's periodic refresh in its own goroutine.
// Ownership is structured: the goroutine stops when Stop is called or
// the parent context is cancelled, and Stop is idempotent.
type refresher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// startRefresher calls tick every interval until stopped. The first
// render has already happened by the time this is called; only
// subsequent refreshes go through the ticker.
func startRefresher(parent context.Context, interval time.Duration, tick func(ctx context.Context)) *refresher {
	ctx, cancel := context.WithCancel(parent)
	r := &refresher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()

	return r
}

// Stop cancels the refresh loop and waits for it to exit.
func (r *refresher) Stop() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.cancel()
		<-r.done
	})
}
