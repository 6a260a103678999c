package timer

import "time"

// Dispatcher schedules fn to run on the event goroutine once d has elapsed.
// The returned stop func cancels the pending run if it has not been queued yet.
type Dispatcher interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// Timer is a monotonic single-shot timer with explicit cancel semantics.
type Timer struct {
	dispatcher Dispatcher
	callback   func()
	enabled    bool
	generation uint64
	stop       func() bool
	interval   time.Duration
}

// New creates a disabled timer that runs callback on expiry.
func New(d Dispatcher, callback func()) *Timer {
	return &Timer{
		dispatcher: d,
		callback:   callback,
	}
}

// RestartOnce (re)arms the timer to fire once after delay, measured from now.
// A pending expiry from an earlier arm is discarded.
func (t *Timer) RestartOnce(delay time.Duration) {
	t.cancel()

	t.generation++
	generation := t.generation
	t.enabled = true
	t.interval = delay
	t.stop = t.dispatcher.AfterFunc(delay, func() {
		t.fire(generation)
	})
}

// Stop disables the timer; its callback will not run for the current arm.
func (t *Timer) Stop() {
	t.cancel()
	t.enabled = false
}

// IsEnabled reports whether the timer is armed and has not fired yet.
func (t *Timer) IsEnabled() bool {
	return t.enabled
}

// Interval returns the delay of the most recent arm.
func (t *Timer) Interval() time.Duration {
	return t.interval
}

func (t *Timer) cancel() {
	t.generation++
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

func (t *Timer) fire(generation uint64) {
	if !t.enabled || generation != t.generation {
		return
	}
	t.enabled = false
	t.stop = nil
	t.callback()
}
