package timer

import (
	"context"
	"time"
)

const defaultQueueSize = 256

// Loop runs posted events one at a time, in order, on the goroutine that
// calls Run. Each event runs to completion before the next is dispatched.
type Loop struct {
	events chan func()
	done   chan struct{}
}

// NewLoop creates a loop with a buffered event queue.
func NewLoop(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Loop{
		events: make(chan func(), queueSize),
		done:   make(chan struct{}),
	}
}

// Post queues fn for the loop goroutine. It is safe to call from any
// goroutine other than the loop itself. Events posted after Run returned
// are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// AfterFunc implements Dispatcher on top of the monotonic runtime timer.
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() {
		l.Post(fn)
	})

	return t.Stop
}

// Run dispatches events until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.events:
			fn()
		}
	}
}
