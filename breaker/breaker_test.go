package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestBreakerStartsClosed(t *testing.T) {
	b := New(3, time.Minute)
	require.Equal(t, StateClosed, b.State())
	require.True(t, b.Allow())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, StateClosed, b.State())
	require.True(t, b.Allow())

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	require.False(t, b.Allow())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	require.Equal(t, 0, b.Failures())

	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, StateClosed, b.State())
}

func TestHalfOpenAdmitsSingleTrial(t *testing.T) {
	clock := newFakeClock()
	b := New(1, time.Second).WithClock(clock.Now)

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	clock.Advance(2 * time.Second)
	require.True(t, b.Allow(), "first caller after reset timeout is the trial")
	require.Equal(t, StateHalfOpen, b.State())
	require.False(t, b.Allow(), "second caller must wait for the trial to resolve")
	require.False(t, b.Allow())
}

func TestHalfOpenTrialSuccessCloses(t *testing.T) {
	clock := newFakeClock()
	b := New(1, time.Second).WithClock(clock.Now)

	b.RecordFailure()
	clock.Advance(2 * time.Second)
	require.True(t, b.Allow())

	b.RecordSuccess()
	require.Equal(t, StateClosed, b.State())
	require.Equal(t, 0, b.Failures())
	require.True(t, b.Allow())
}

func TestHalfOpenTrialFailureReopens(t *testing.T) {
	clock := newFakeClock()
	b := New(2, time.Second).WithClock(clock.Now)

	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	clock.Advance(2 * time.Second)
	require.True(t, b.Allow())
	failuresBefore := b.Failures()

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	require.Equal(t, failuresBefore, b.Failures(), "half-open failure must not grow the count")
	require.False(t, b.Allow(), "reopened breaker rejects until another reset timeout")

	clock.Advance(2 * time.Second)
	require.True(t, b.Allow(), "a fresh trial is admitted after the refreshed timeout")
}

func TestConcurrentAllowAdmitsOneTrial(t *testing.T) {
	clock := newFakeClock()
	b := New(1, time.Second).WithClock(clock.Now)
	b.RecordFailure()
	clock.Advance(2 * time.Second)

	const callers = 32
	var admitted int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if b.Allow() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, admitted)
}

func TestResetClearsState(t *testing.T) {
	b := New(1, time.Minute)
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	require.Equal(t, StateClosed, b.State())
	require.Equal(t, 0, b.Failures())
	require.True(t, b.Allow())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "closed", StateClosed.String())
	require.Equal(t, "open", StateOpen.String())
	require.Equal(t, "half_open", StateHalfOpen.String())
}
