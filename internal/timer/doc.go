// Package timer provides the single-shot, cancelable timers that drive fan
// fault debouncing, and the event loop they fire on.
//
// All timer callbacks run on one goroutine: the Loop in production, or the
// caller of Manual.Advance in tests. A Timer must only be started, stopped
// or inspected from that goroutine. Under that rule a stopped Timer never
// runs its callback, even if the underlying clock already fired.
package timer
