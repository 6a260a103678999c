// Package inventory keeps the fan and sensor state reported by the monitor
// and presence engines and forwards it to external consumers.
package inventory

import (
	"sort"
	"sync"
	"time"
)

// Item is the inventory view of one fan or sensor object. Nil fields have
// not been reported yet.
type Item struct {
	Path       string    `json:"path" cbor:"path"`
	Name       string    `json:"name,omitempty" cbor:"name,omitempty"`
	Present    *bool     `json:"present,omitempty" cbor:"present,omitempty"`
	Functional *bool     `json:"functional,omitempty" cbor:"functional,omitempty"`
	UpdatedAt  time.Time `json:"updated_at" cbor:"updated_at"`
}

// Sink receives functional and presence updates.
type Sink interface {
	UpdateFunctional(path string, functional bool)
	UpdatePresence(path, name string, present bool)
}

// Store is an in-memory inventory, safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Item
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]*Item),
		now:   time.Now,
	}
}

func (s *Store) item(path string) *Item {
	it, ok := s.items[path]
	if !ok {
		it = &Item{Path: path}
		s.items[path] = it
	}
	return it
}

// UpdateFunctional records the functional state of the object at path.
func (s *Store) UpdateFunctional(path string, functional bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.item(path)
	it.Functional = &functional
	it.UpdatedAt = s.now().UTC()
}

// UpdatePresence records whether the fan at path is installed.
func (s *Store) UpdatePresence(path, name string, present bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.item(path)
	it.Name = name
	it.Present = &present
	it.UpdatedAt = s.now().UTC()
}

// Get returns a copy of the item at path.
func (s *Store) Get(path string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[path]
	if !ok {
		return Item{}, false
	}
	return copyItem(it), true
}

// Snapshot returns a copy of every item, ordered by path.
func (s *Store) Snapshot() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, copyItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func copyItem(it *Item) Item {
	c := *it
	if it.Present != nil {
		v := *it.Present
		c.Present = &v
	}
	if it.Functional != nil {
		v := *it.Functional
		c.Functional = &v
	}
	return c
}

// Multi forwards every update to each sink in order.
type Multi []Sink

// UpdateFunctional forwards a functional update to every sink.
func (m Multi) UpdateFunctional(path string, functional bool) {
	for _, s := range m {
		s.UpdateFunctional(path, functional)
	}
}

// UpdatePresence forwards a presence update to every sink.
func (m Multi) UpdatePresence(path, name string, present bool) {
	for _, s := range m {
		s.UpdatePresence(path, name, present)
	}
}
