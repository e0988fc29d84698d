package pool

import (
	"context"

	"github.com/esoxlabs/objectpool/config"
	"github.com/esoxlabs/objectpool/errs"
)

// DynamicPool creates items on demand through a caller-supplied factory, up to
// the configured capacity ceiling. Discarded items lower the live count, so
// the pool recreates replacements on the next checkout.
type DynamicPool[T any] struct {
	core    *Pool[T]
	factory func() (T, error)
}

// NewDynamic constructs an empty dynamic pool around the factory. When the
// configuration carries a warmup size, the pool is pre-seeded before return; a
// warmup failure aborts construction.
func NewDynamic[T any](name string, factory func() (T, error), cfg config.Settings, opts ...Option[T]) (*DynamicPool[T], error) {
	return NewDynamicWithInitial(name, factory, nil, cfg, opts...)
}

// NewDynamicWithInitial constructs a dynamic pool pre-seeded with items in
// addition to the factory.
func NewDynamicWithInitial[T any](name string, factory func() (T, error), items []T, cfg config.Settings, opts ...Option[T]) (*DynamicPool[T], error) {
	if factory == nil {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithMessage("factory required"))
	}
	core, err := newCore[T](name, cfg, opts...)
	if err != nil {
		return nil, err
	}
	core.dynamic = true
	core.seed(items)

	d := &DynamicPool[T]{core: core, factory: factory}
	if cfg.WarmupSize > 0 {
		if err := d.Warmup(cfg.WarmupSize); err != nil {
			core.Close()
			return nil, err
		}
	}
	return d, nil
}

// Get acquires a lease, creating a fresh item when none is available and the
// capacity ceiling has not been reached. At the ceiling the caller waits for a
// release or a freed slot.
func (d *DynamicPool[T]) Get(ctx context.Context) (*Lease[T], error) {
	return d.core.get(ctx, nil, d.factory)
}

// TryGet acquires a lease without waiting. At the capacity ceiling it fails
// with a pool-full error.
func (d *DynamicPool[T]) TryGet() (*Lease[T], error) {
	return d.core.tryGet(nil, d.factory)
}

// Warmup pre-creates up to n items, stopping at the capacity ceiling. The
// first factory failure aborts the remaining calls and surfaces as an error;
// items already created stay in the pool.
func (d *DynamicPool[T]) Warmup(n int) error {
	p := d.core
	for i := 0; i < n; i++ {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return errs.New(p.name, errs.CodeClosed)
		}
		if p.live >= p.capacity {
			p.mu.Unlock()
			return nil
		}
		p.live++
		p.mu.Unlock()

		v, err := d.factory()
		if err != nil {
			p.mu.Lock()
			p.live--
			p.mu.Unlock()
			p.recordFailure()
			return errs.New(p.name, errs.CodeFactory, errs.WithCause(err))
		}

		p.mu.Lock()
		p.dispatchLocked(p.newItem(v, p.clock()))
		p.mu.Unlock()
	}
	return nil
}

// Name returns the pool's name.
func (d *DynamicPool[T]) Name() string { return d.core.Name() }

// Capacity returns the pool's configured ceiling.
func (d *DynamicPool[T]) Capacity() int { return d.core.Capacity() }

// Stats returns a point-in-time snapshot of the pool's counters.
func (d *DynamicPool[T]) Stats() Stats { return d.core.Stats() }

// Health evaluates the pool's current health.
func (d *DynamicPool[T]) Health() HealthStatus { return d.core.Health() }

// Close tears the pool down.
func (d *DynamicPool[T]) Close() { d.core.Close() }
