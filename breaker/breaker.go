// Package breaker implements a failure-count circuit breaker with a
// single-trial half-open probe.
package breaker

import (
	"sync"
	"time"

	"github.com/esoxlabs/objectpool/observability"
)

// State identifies the current breaker disposition.
type State int32

const (
	// StateClosed admits all requests.
	StateClosed State = iota
	// StateOpen rejects all requests until the reset timeout elapses.
	StateOpen
	// StateHalfOpen admits exactly one trial request.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker gates requests once consecutive failures reach a threshold. After
// the reset timeout it admits a single trial; the trial's outcome decides
// whether the breaker closes again or re-opens.
type Breaker struct {
	mu            sync.Mutex
	name          string
	state         State
	failures      int
	threshold     int
	resetTimeout  time.Duration
	lastFailure   time.Time
	trialInFlight bool
	clock         func() time.Time
}

// New constructs a closed breaker that opens after threshold consecutive
// failures and probes for recovery after resetTimeout.
func New(threshold int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		state:        StateClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		clock:        time.Now,
	}
}

// Named attaches a name used in transition log lines.
func (b *Breaker) Named(name string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
	return b
}

// WithClock overrides the internal clock, primarily for testing.
func (b *Breaker) WithClock(clock func() time.Time) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if clock == nil {
		b.clock = time.Now
	} else {
		b.clock = clock
	}
	return b
}

// Allow reports whether a request may proceed. When the breaker is open and
// the reset timeout has elapsed, the calling request is admitted as the
// half-open trial; concurrent callers keep observing the breaker as open
// until that trial resolves.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.clock().Sub(b.lastFailure) >= b.resetTimeout {
			b.state = StateHalfOpen
			b.trialInFlight = true
			observability.Log().Debug("breaker: half-open trial admitted",
				observability.String("breaker", b.name))
			return true
		}
		return false
	case StateHalfOpen:
		if !b.trialInFlight {
			b.trialInFlight = true
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess resets the failure count. A successful half-open trial closes
// the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.trialInFlight = false
		observability.Log().Info("breaker: closed after successful trial",
			observability.String("breaker", b.name))
	}
}

// RecordFailure counts a failure. Reaching the threshold opens the breaker; a
// failed half-open trial re-opens it immediately without touching the count.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()
	if b.state == StateHalfOpen {
		b.lastFailure = now
		b.state = StateOpen
		b.trialInFlight = false
		observability.Log().Info("breaker: reopened after failed trial",
			observability.String("breaker", b.name))
		return
	}

	b.failures++
	b.lastFailure = now
	if b.state == StateClosed && b.failures >= b.threshold {
		b.state = StateOpen
		observability.Log().Info("breaker: opened",
			observability.String("breaker", b.name),
			observability.Int("failures", b.failures))
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset returns the breaker to the closed state and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.trialInFlight = false
}
