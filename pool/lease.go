package pool

import (
	"sync"

	"github.com/google/uuid"
)

// Lease grants exclusive access to one pooled item. Exactly one live lease
// references an item at a time. The item travels back to its pool exactly
// once: the first Release, ReleaseWith, or Detach takes ownership of it out of
// the lease, and every later call is a no-op.
type Lease[T any] struct {
	pool *Pool[T]
	id   uuid.UUID

	mu sync.Mutex
	it *item[T]
}

func newLease[T any](p *Pool[T], it *item[T], id uuid.UUID) *Lease[T] {
	return &Lease[T]{pool: p, id: id, it: it}
}

// Value returns the leased payload. It panics when called after the lease has
// been released or detached.
func (l *Lease[T]) Value() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.it == nil {
		panic("objectpool: lease used after release")
	}
	return l.it.value
}

// ID returns the unique checkout id recorded in the pool's active map.
func (l *Lease[T]) ID() uuid.UUID { return l.id }

// Release returns the item to the pool, reporting a successful use.
func (l *Lease[T]) Release() {
	l.finish(nil)
}

// ReleaseWith returns the item to the pool, reporting err as the outcome of
// this use. A non-nil err counts as a failure with the circuit breaker.
func (l *Lease[T]) ReleaseWith(err error) {
	l.finish(err)
}

// Detach removes the payload from pool accounting permanently and hands it to
// the caller; the pool forgets the item. Panics when the lease was already
// released.
func (l *Lease[T]) Detach() T {
	it := l.take()
	if it == nil {
		panic("objectpool: lease used after release")
	}
	l.pool.detach(l.id, it)
	return it.value
}

func (l *Lease[T]) finish(err error) {
	it := l.take()
	if it == nil {
		return
	}
	l.pool.release(l.id, it, err)
}

// take transfers ownership of the item out of the lease. Only the first call
// gets it.
func (l *Lease[T]) take() *item[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	it := l.it
	l.it = nil
	return it
}
