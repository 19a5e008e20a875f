// Package buffer provides a bounded history buffer.
package buffer

import "sync"

// Ring is a thread-safe circular buffer holding the most recent items up to
// its capacity. When full, the oldest item is overwritten.
type Ring[T any] struct {
	items    []T
	next     int
	full     bool
	capacity int
	mu       sync.RWMutex
}

// NewRing creates a Ring with the given capacity. A capacity below 1
// defaults to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends item, discarding the oldest item if the ring is full.
func (r *Ring[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
}

// Items returns a copy of the buffered items, oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		out := make([]T, r.next)
		copy(out, r.items[:r.next])
		return out
	}

	out := make([]T, 0, r.capacity)
	out = append(out, r.items[r.next:]...)
	return append(out, r.items[:r.next]...)
}

// Clear removes all items.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.items)
	r.next = 0
	r.full = false
}

// Len returns the number of buffered items.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.full {
		return r.capacity
	}
	return r.next
}

// Cap returns the capacity of the ring.
func (r *Ring[T]) Cap() int {
	return r.capacity
}
