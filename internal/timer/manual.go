package timer

import (
	"sort"
	"time"
)

// Manual is a Dispatcher with a virtual clock. Callbacks run synchronously
// inside Advance, in deadline order, on the caller's goroutine.
type Manual struct {
	now     time.Duration
	seq     uint64
	pending []*scheduled
}

type scheduled struct {
	at       time.Duration
	seq      uint64
	fn       func()
	canceled bool
}

// NewManual creates a virtual clock starting at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

// AfterFunc implements Dispatcher.
func (m *Manual) AfterFunc(d time.Duration, fn func()) func() bool {
	if d < 0 {
		d = 0
	}
	m.seq++
	s := &scheduled{at: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, s)

	return func() bool {
		if s.canceled {
			return false
		}
		for i, p := range m.pending {
			if p == s {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
				s.canceled = true
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d, running every callback that comes
// due, including ones scheduled by earlier callbacks within the window.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for {
		next := m.next(end)
		if next == nil {
			break
		}
		m.now = next.at
		next.fn()
	}
	m.now = end
}

// Pending returns the number of scheduled callbacks not yet run.
func (m *Manual) Pending() int {
	return len(m.pending)
}

func (m *Manual) next(end time.Duration) *scheduled {
	if len(m.pending) == 0 {
		return nil
	}
	sort.Slice(m.pending, func(i, j int) bool {
		if m.pending[i].at == m.pending[j].at {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].at < m.pending[j].at
	})
	if m.pending[0].at > end {
		return nil
	}
	s := m.pending[0]
	m.pending = m.pending[1:]
	s.canceled = true

	return s
}
