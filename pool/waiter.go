package pool

import "github.com/google/uuid"

// assignment carries an item handed directly to a parked waiter together with
// its already-registered checkout id. A nil assignment tells the waiter to
// retry its checkout from scratch (a capacity slot was freed).
type assignment[T any] struct {
	it *item[T]
	id uuid.UUID
}

// waiter is a caller parked on the pool until an item is assigned to it. The
// channel holds one slot so the assigning side never blocks while holding the
// pool lock.
type waiter[T any] struct {
	match func(T) bool
	ch    chan *assignment[T]
}

func newWaiter[T any](match func(T) bool) *waiter[T] {
	return &waiter[T]{match: match, ch: make(chan *assignment[T], 1)}
}

// dequeueWaiter removes w from the wait list. It returns false when w has
// already been assigned an item (or the pool closed), in which case the caller
// must drain w.ch and reclaim any delivered item.
func (p *Pool[T]) dequeueWaiter(w *waiter[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cand := range p.waiters {
		if cand == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// dispatchLocked routes an item to the first waiter whose predicate accepts
// it, registering the new checkout in the same critical section so assignment
// and bookkeeping are one atomic step. Without a taker the item joins the
// available container. Caller holds p.mu.
func (p *Pool[T]) dispatchLocked(it *item[T]) {
	now := p.clock()
	for i, w := range p.waiters {
		if w.match != nil && !w.match(it.value) {
			continue
		}
		p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
		id := p.registerLocked(it, now)
		w.ch <- &assignment[T]{it: it, id: id}
		return
	}
	p.available = append(p.available, it)
}

// wakeOneLocked pops one waiter and tells it to retry. Used when a capacity
// slot frees up in a dynamic pool rather than an item becoming available.
// Caller holds p.mu.
func (p *Pool[T]) wakeOneLocked() {
	if len(p.waiters) == 0 {
		return
	}
	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	w.ch <- nil
}
