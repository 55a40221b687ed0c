// Package buffer provides a fixed-capacity ring buffer for sample windows.
package buffer

// Ring is a fixed-capacity circular buffer with drop-oldest semantics.
// It is owned by a single goroutine; callers needing concurrent access must
// serialize externally. The moving-average filter runs one Ring per channel
// on the per-sample hot path, which is why there is no internal locking.
type Ring[T any] struct {
	items []T
	head  int // next write position
	size  int
}

// NewRing creates a ring with the given capacity. Capacities below 1 are
// clamped to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends an item. When the ring is full the oldest item is evicted and
// returned with full=true; otherwise the zero value and full=false.
func (r *Ring[T]) Push(item T) (evicted T, full bool) {
	if r.size == len(r.items) {
		evicted = r.items[r.head]
		full = true
	} else {
		r.size++
	}
	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	return evicted, full
}

// Len returns the current number of items.
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Full reports whether the ring holds Cap() items.
func (r *Ring[T]) Full() bool {
	return r.size == len(r.items)
}

// Reset drops all items. Capacity is unchanged.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}

// Values returns the items oldest to newest in a freshly allocated slice.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.size)
	start := r.head - r.size
	if start < 0 {
		start += len(r.items)
	}
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(start+i)%len(r.items)]
	}
	return out
}

// Do calls fn for each item oldest to newest.
func (r *Ring[T]) Do(fn func(T)) {
	start := r.head - r.size
	if start < 0 {
		start += len(r.items)
	}
	for i := 0; i < r.size; i++ {
		fn(r.items[(start+i)%len(r.items)])
	}
}
