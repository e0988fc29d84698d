package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esoxlabs/objectpool/errs"
)

func TestQueryablePoolMatch(t *testing.T) {
	q, err := NewQueryable("conns", []string{"red", "green", "blue"}, testSettings(3))
	require.NoError(t, err)
	defer q.Close()

	lease, err := q.TryGet(func(v string) bool { return v == "green" })
	require.NoError(t, err)
	require.Equal(t, "green", lease.Value())

	st := q.Stats()
	require.Equal(t, 2, st.Available)
	require.Equal(t, 1, st.Active)
	lease.Release()
}

func TestQueryablePoolNoMatch(t *testing.T) {
	q, err := NewQueryable("conns", []string{"red", "green"}, testSettings(2))
	require.NoError(t, err)
	defer q.Close()

	_, err = q.TryGet(func(v string) bool { return v == "purple" })
	require.True(t, errs.HasCode(err, errs.CodeNoMatch))

	// Non-matching items were scanned but stay put.
	require.Equal(t, 2, q.Stats().Available)
}

func TestQueryablePoolNilPredicate(t *testing.T) {
	q, err := NewQueryable("conns", []int{1}, testSettings(1))
	require.NoError(t, err)
	defer q.Close()

	_, err = q.TryGet(nil)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
	_, err = q.Get(context.Background(), nil)
	require.True(t, errs.HasCode(err, errs.CodeInvalid))
}

func TestQueryablePoolFirstMatchWins(t *testing.T) {
	q, err := NewQueryable("conns", []int{2, 4, 6}, testSettings(3))
	require.NoError(t, err)
	defer q.Close()

	lease, err := q.TryGet(func(v int) bool { return v%2 == 0 })
	require.NoError(t, err)
	require.Equal(t, 2, lease.Value())
	lease.Release()
}

func TestQueryablePoolBlockingMatch(t *testing.T) {
	q, err := NewQueryable("conns", []int{1, 2}, testSettings(2))
	require.NoError(t, err)
	defer q.Close()

	two, err := q.TryGet(func(v int) bool { return v == 2 })
	require.NoError(t, err)

	got := make(chan int, 1)
	go func() {
		l, err := q.Get(context.Background(), func(v int) bool { return v == 2 })
		if err != nil {
			t.Errorf("get: %v", err)
			got <- -1
			return
		}
		v := l.Value()
		l.Release()
		got <- v
	}()

	time.Sleep(20 * time.Millisecond)

	// Returning a non-matching item must not satisfy the waiter.
	one, err := q.TryGet(func(v int) bool { return v == 1 })
	require.NoError(t, err)
	one.Release()
	select {
	case <-got:
		t.Fatal("waiter satisfied by a non-matching item")
	case <-time.After(50 * time.Millisecond):
	}

	two.Release()
	select {
	case v := <-got:
		require.Equal(t, 2, v)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never received the matching item")
	}

	require.Equal(t, 2, q.Stats().Available)
}

func TestQueryablePoolMatchWaitTimesOut(t *testing.T) {
	cfg := testSettings(1)
	cfg.GetTimeout = 30 * time.Millisecond
	q, err := NewQueryable("conns", []int{1}, cfg)
	require.NoError(t, err)
	defer q.Close()

	// The only item never matches, but it could in principle be released in
	// a matching state, so the caller waits out its budget.
	_, err = q.Get(context.Background(), func(v int) bool { return v == 99 })
	require.True(t, errs.HasCode(err, errs.CodeTimeout))
}

func TestQueryablePoolStaleMatchDiscarded(t *testing.T) {
	clk := newFakeClock()
	cfg := testSettings(2)
	cfg.TTL = 100 * time.Millisecond
	q, err := NewQueryable("conns", []int{1, 2}, cfg, WithClock[int](clk.Now))
	require.NoError(t, err)
	defer q.Close()

	clk.Advance(150 * time.Millisecond)
	_, err = q.TryGet(func(v int) bool { return v == 2 })
	require.True(t, errs.HasCode(err, errs.CodeNoMatch))
	require.Equal(t, uint64(2), q.Stats().Discarded)
}
