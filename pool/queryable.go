package pool

import (
	"context"

	"github.com/esoxlabs/objectpool/config"
	"github.com/esoxlabs/objectpool/errs"
)

// QueryablePool hands out leases over items matching a caller predicate
// instead of an arbitrary available item. Scan order is the container order;
// the first match wins and non-matching items stay available.
type QueryablePool[T any] struct {
	core *Pool[T]
}

// NewQueryable constructs a queryable pool seeded with the provided items.
func NewQueryable[T any](name string, items []T, cfg config.Settings, opts ...Option[T]) (*QueryablePool[T], error) {
	core, err := New(name, items, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &QueryablePool[T]{core: core}, nil
}

// Get acquires a lease over an item satisfying match, waiting for one to be
// returned when none is currently available.
func (q *QueryablePool[T]) Get(ctx context.Context, match func(T) bool) (*Lease[T], error) {
	if match == nil {
		return nil, errs.New(q.core.name, errs.CodeInvalid, errs.WithMessage("match predicate required"))
	}
	return q.core.get(ctx, match, nil)
}

// TryGet acquires a matching lease without waiting.
func (q *QueryablePool[T]) TryGet(match func(T) bool) (*Lease[T], error) {
	if match == nil {
		return nil, errs.New(q.core.name, errs.CodeInvalid, errs.WithMessage("match predicate required"))
	}
	return q.core.tryGet(match, nil)
}

// Name returns the pool's name.
func (q *QueryablePool[T]) Name() string { return q.core.Name() }

// Capacity returns the pool's configured ceiling.
func (q *QueryablePool[T]) Capacity() int { return q.core.Capacity() }

// Stats returns a point-in-time snapshot of the pool's counters.
func (q *QueryablePool[T]) Stats() Stats { return q.core.Stats() }

// Health evaluates the pool's current health.
func (q *QueryablePool[T]) Health() HealthStatus { return q.core.Health() }

// Close tears the pool down.
func (q *QueryablePool[T]) Close() { q.core.Close() }
