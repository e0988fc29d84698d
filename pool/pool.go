// Package pool provides bounded, queryable, and dynamically growing object
// pools with lease-based exclusive checkout, lazy eviction, and circuit
// breaker protection.
package pool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/esoxlabs/objectpool/breaker"
	"github.com/esoxlabs/objectpool/config"
	"github.com/esoxlabs/objectpool/errs"
	"github.com/esoxlabs/objectpool/observability"
)

// Checkout records one outstanding lease in the active-checkouts map.
type Checkout struct {
	ItemID         uint64
	AcquiredAt     time.Time
	LastReturnedAt time.Time
}

// Option configures optional pool behaviour at construction.
type Option[T any] func(*Pool[T])

// WithValidator installs a payload validation predicate, applied at checkout
// and at return. Items that fail it are discarded, never handed out. The
// predicate is never invoked concurrently for the same item.
func WithValidator[T any](validate func(T) bool) Option[T] {
	return func(p *Pool[T]) {
		p.validate = validate
	}
}

// WithClock overrides the pool's clock, primarily for testing eviction and
// breaker timing.
func WithClock[T any](clock func() time.Time) Option[T] {
	return func(p *Pool[T]) {
		if clock != nil {
			p.clock = clock
		}
	}
}

type counters struct {
	created            atomic.Uint64
	retrieved          atomic.Uint64
	returned           atomic.Uint64
	discarded          atomic.Uint64
	emptyEvents        atomic.Uint64
	validationFailures atomic.Uint64
}

// Pool hands out exclusive leases over a fixed set of items supplied at
// construction. An item discarded as stale or invalid is gone for good: a
// fixed pool has no replacement source, so its effective size shrinks.
type Pool[T any] struct {
	name     string
	cfg      config.Settings
	policy   EvictionPolicy
	validate func(T) bool
	clock    func() time.Time
	brk      *breaker.Breaker
	dynamic  bool
	capacity int

	mu        sync.Mutex
	available []*item[T]
	active    map[uuid.UUID]Checkout
	waiters   []*waiter[T]
	closed    bool
	live      int // items created and not yet discarded

	itemSeq atomic.Uint64
	stats   counters
}

// New constructs a fixed pool seeded with the provided items.
func New[T any](name string, items []T, cfg config.Settings, opts ...Option[T]) (*Pool[T], error) {
	p, err := newCore[T](name, cfg, opts...)
	if err != nil {
		return nil, err
	}
	p.seed(items)
	return p, nil
}

func newCore[T any](name string, cfg config.Settings, opts ...Option[T]) (*Pool[T], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(cfg.Name)
	}
	if name == "" {
		name = "pool"
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = name
	}
	if err := cfg.Validate(); err != nil {
		return nil, errs.New(name, errs.CodeInvalid, errs.WithCause(err))
	}

	p := &Pool[T]{
		name:     name,
		cfg:      cfg,
		policy:   EvictionPolicy{TTL: cfg.TTL, IdleTimeout: cfg.IdleTimeout},
		clock:    time.Now,
		capacity: cfg.MaxPoolSize,
		active:   make(map[uuid.UUID]Checkout),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if cfg.Breaker.Enabled {
		p.brk = breaker.New(cfg.Breaker.Threshold, cfg.Breaker.ResetTimeout).
			Named(name).WithClock(p.clock)
	}
	return p, nil
}

func (p *Pool[T]) seed(items []T) {
	now := p.clock()
	for _, v := range items {
		p.available = append(p.available, p.newItem(v, now))
	}
	p.live = len(items)
	if len(items) > p.capacity {
		p.capacity = len(items)
	}
}

func (p *Pool[T]) newItem(v T, now time.Time) *item[T] {
	p.stats.created.Add(1)
	return &item[T]{
		value:          v,
		id:             p.itemSeq.Add(1),
		createdAt:      now,
		lastReturnedAt: now,
	}
}

// Name returns the pool's name.
func (p *Pool[T]) Name() string { return p.name }

// Capacity returns the pool's configured ceiling.
func (p *Pool[T]) Capacity() int { return p.capacity }

// Get acquires a lease, waiting until an item is available, the configured
// wait budget elapses, or ctx is cancelled.
func (p *Pool[T]) Get(ctx context.Context) (*Lease[T], error) {
	return p.get(ctx, nil, nil)
}

// TryGet acquires a lease without waiting.
func (p *Pool[T]) TryGet() (*Lease[T], error) {
	return p.tryGet(nil, nil)
}

func (p *Pool[T]) get(ctx context.Context, match func(T) bool, create func() (T, error)) (*Lease[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.cfg.GetTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.GetTimeout)
		defer cancel()
	}

	gate := true
	waitStart := time.Now()
	for {
		lease, w, err := p.attempt(match, create, true, gate)
		if err != nil {
			return nil, err
		}
		if lease != nil {
			p.finishCheckout()
			return lease, nil
		}
		// Once admitted by the breaker, loop iterations skip the gate so the
		// half-open trial caller cannot lock itself out.
		gate = false

		select {
		case asg := <-w.ch:
			if asg == nil || asg.it == nil {
				continue
			}
			observability.Telemetry().ObserveHistogram(
				observability.MetricWaitSeconds, time.Since(waitStart).Seconds(), observability.PoolLabels(p.name))
			p.finishCheckout()
			return newLease(p, asg.it, asg.id), nil
		case <-ctx.Done():
			if p.dequeueWaiter(w) {
				return nil, p.waitErr(ctx.Err())
			}
			// Assignment raced with cancellation. Reclaim the item so it goes
			// to the next caller instead of vanishing.
			if asg := <-w.ch; asg != nil && asg.it != nil {
				p.reclaim(asg)
			}
			return nil, p.waitErr(ctx.Err())
		}
	}
}

func (p *Pool[T]) tryGet(match func(T) bool, create func() (T, error)) (*Lease[T], error) {
	lease, _, err := p.attempt(match, create, false, true)
	if err != nil {
		return nil, err
	}
	p.finishCheckout()
	return lease, nil
}

// attempt performs one pass of the checkout protocol. Exactly one of the
// return values is set: a lease on success, a parked waiter when block is set
// and nothing was available, or an error.
func (p *Pool[T]) attempt(match func(T) bool, create func() (T, error), block, gate bool) (*Lease[T], *waiter[T], error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, nil, errs.New(p.name, errs.CodeClosed)
	}
	if gate && p.brk != nil && !p.brk.Allow() {
		p.mu.Unlock()
		return nil, nil, errs.New(p.name, errs.CodeCircuitOpen)
	}
	if max := p.cfg.MaxActiveObjects; max > 0 && len(p.active) >= max {
		p.mu.Unlock()
		return nil, nil, errs.New(p.name, errs.CodeMaxActive,
			errs.WithMessagef("%d leases outstanding", max))
	}

	now := p.clock()
	if it := p.takeLocked(now, match); it != nil {
		id := p.registerLocked(it, now)
		p.mu.Unlock()
		return newLease(p, it, id), nil, nil
	}

	if create != nil && p.live < p.capacity {
		p.live++ // reserve the slot before the factory runs
		p.mu.Unlock()
		return p.createItem(create)
	}

	// Nothing can ever come back to an empty fixed pool with no outstanding
	// leases; fail immediately instead of parking.
	if block && (p.live > 0 || create != nil) {
		w := newWaiter[T](match)
		p.waiters = append(p.waiters, w)
		p.mu.Unlock()
		return nil, w, nil
	}

	p.mu.Unlock()
	return nil, nil, p.exhaustedErr(match, create)
}

// takeLocked removes and returns the first usable available item, lazily
// discarding stale or invalid ones encountered on the way. Scan order is
// container order; with a predicate, non-matching items stay in place. Caller
// holds p.mu.
func (p *Pool[T]) takeLocked(now time.Time, match func(T) bool) *item[T] {
	var taken *item[T]
	kept := p.available[:0]
	for _, it := range p.available {
		if taken != nil {
			kept = append(kept, it)
			continue
		}
		if p.policy.Stale(now, it.createdAt, it.lastReturnedAt) {
			p.discardLocked(it, "stale", false)
			continue
		}
		if match != nil && !match(it.value) {
			kept = append(kept, it)
			continue
		}
		if p.validate != nil && !p.validate(it.value) {
			p.discardLocked(it, "validation", true)
			continue
		}
		taken = it
	}
	// Zero the tail so dropped slots do not pin items.
	for i := len(kept); i < len(p.available); i++ {
		p.available[i] = nil
	}
	p.available = kept
	return taken
}

// discardLocked drops an item for good. Caller holds p.mu and has already
// removed the item from whichever container held it.
func (p *Pool[T]) discardLocked(it *item[T], reason string, validation bool) {
	p.live--
	p.stats.discarded.Add(1)
	if validation {
		p.stats.validationFailures.Add(1)
		observability.Telemetry().IncCounter(observability.MetricValidationFailures, 1, observability.PoolLabels(p.name))
	}
	observability.Telemetry().IncCounter(observability.MetricDiscards, 1, observability.PoolLabels(p.name))
	observability.Log().Debug("pool: discarded item",
		observability.String("pool", p.name),
		observability.String("reason", reason),
		observability.Uint64("item", it.id))
}

func (p *Pool[T]) registerLocked(it *item[T], now time.Time) uuid.UUID {
	id := uuid.New()
	it.useCount++
	p.active[id] = Checkout{ItemID: it.id, AcquiredAt: now, LastReturnedAt: it.lastReturnedAt}
	return id
}

func (p *Pool[T]) createItem(create func() (T, error)) (*Lease[T], *waiter[T], error) {
	v, err := create()
	if err != nil {
		p.mu.Lock()
		p.live--
		p.mu.Unlock()
		p.recordFailure()
		return nil, nil, errs.New(p.name, errs.CodeFactory, errs.WithCause(err))
	}

	p.mu.Lock()
	now := p.clock()
	it := p.newItem(v, now)
	id := p.registerLocked(it, now)
	p.mu.Unlock()
	return newLease(p, it, id), nil, nil
}

func (p *Pool[T]) exhaustedErr(match func(T) bool, create func() (T, error)) error {
	p.recordFailure()
	if match != nil {
		return errs.New(p.name, errs.CodeNoMatch)
	}
	if create != nil {
		return errs.New(p.name, errs.CodePoolFull,
			errs.WithMessagef("capacity %d reached", p.capacity))
	}
	p.stats.emptyEvents.Add(1)
	observability.Telemetry().IncCounter(observability.MetricEmptyEvents, 1, observability.PoolLabels(p.name))
	return errs.New(p.name, errs.CodePoolEmpty)
}

func (p *Pool[T]) waitErr(cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		p.recordFailure()
		return errs.New(p.name, errs.CodeTimeout, errs.WithCause(cause))
	}
	return errs.New(p.name, errs.CodeCancelled, errs.WithCause(cause))
}

func (p *Pool[T]) finishCheckout() {
	p.stats.retrieved.Add(1)
	observability.Telemetry().IncCounter(observability.MetricCheckouts, 1, observability.PoolLabels(p.name))
	p.recordSuccess()
}

// reclaim undoes an assignment delivered to a waiter that cancelled before it
// could accept: the checkout record is erased and the item re-dispatched.
func (p *Pool[T]) reclaim(asg *assignment[T]) {
	p.mu.Lock()
	delete(p.active, asg.id)
	asg.it.useCount--
	if p.closed {
		p.discardLocked(asg.it, "closed", false)
		p.mu.Unlock()
		return
	}
	p.dispatchLocked(asg.it)
	p.mu.Unlock()
}

// release is invoked exactly once per lease via the lease's ownership
// transfer. callerErr carries the caller-reported outcome for the breaker.
func (p *Pool[T]) release(id uuid.UUID, it *item[T], callerErr error) {
	p.mu.Lock()
	delete(p.active, id)

	if p.closed {
		p.discardLocked(it, "closed", false)
		p.mu.Unlock()
		return
	}

	if callerErr != nil {
		p.recordFailure()
	} else {
		p.recordSuccess()
	}

	now := p.clock()
	stale := p.policy.TTLExpired(now, it.createdAt)
	invalid := p.validate != nil && !p.validate(it.value)
	if stale || invalid {
		reason := "stale"
		if invalid {
			reason = "validation"
		}
		p.discardLocked(it, reason, invalid)
		if p.dynamic {
			// The freed slot lets a parked caller create a replacement.
			p.wakeOneLocked()
		}
		p.mu.Unlock()
		return
	}

	it.lastReturnedAt = now
	p.dispatchLocked(it)
	p.mu.Unlock()

	p.stats.returned.Add(1)
	observability.Telemetry().IncCounter(observability.MetricReturns, 1, observability.PoolLabels(p.name))
}

// detach removes a leased item from pool accounting permanently; the caller
// keeps the payload.
func (p *Pool[T]) detach(id uuid.UUID, it *item[T]) {
	p.mu.Lock()
	delete(p.active, id)
	if !p.closed {
		p.discardLocked(it, "detached", false)
		if p.dynamic {
			p.wakeOneLocked()
		}
	} else {
		p.discardLocked(it, "closed", false)
	}
	p.mu.Unlock()
}

func (p *Pool[T]) recordSuccess() {
	if p.brk != nil {
		p.brk.RecordSuccess()
	}
}

func (p *Pool[T]) recordFailure() {
	if p.brk != nil {
		p.brk.RecordFailure()
	}
}

// Close tears the pool down: available items are discarded, parked waiters
// fail with a closed error, and later checkouts are rejected. Outstanding
// leases stay valid; releasing them becomes a no-op. Close is idempotent.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	dropped := p.available
	p.available = nil
	waiters := p.waiters
	p.waiters = nil
	for _, it := range dropped {
		p.discardLocked(it, "closed", false)
	}
	p.mu.Unlock()

	for _, w := range waiters {
		close(w.ch)
	}
	observability.Log().Info("pool: closed",
		observability.String("pool", p.name),
		observability.Int("dropped", len(dropped)))
}
