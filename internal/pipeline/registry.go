package pipeline

import "sync"

// Registry is an append-only, ordered collection safe for concurrent use.
// Entries are never removed or replaced.
type Registry[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make([]T, 0),
	}
}

// Append adds an entry after all existing ones.
func (r *Registry[T]) Append(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, item)
}

// Snapshot returns the entries registered so far. Later appends never show up
// in, or write into, a snapshot that was already taken.
func (r *Registry[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.items)

	return r.items[:n:n]
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
