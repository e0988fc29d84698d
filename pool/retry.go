package pool

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/esoxlabs/objectpool/errs"
)

// GetWithRetry repeatedly invokes a non-blocking checkout, sleeping per the
// backoff schedule between attempts until a lease is obtained, the schedule is
// exhausted, or ctx ends. Only transient outcomes (empty, full, no match) are
// retried; fail-fast errors such as an open breaker or a factory failure
// surface immediately.
func GetWithRetry[T any](ctx context.Context, try func() (*Lease[T], error), bo backoff.BackOff) (*Lease[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if bo == nil {
		bo = backoff.NewExponentialBackOff()
	}
	bo.Reset()

	for {
		lease, err := try()
		if err == nil {
			return lease, nil
		}
		if !retryable(err) {
			return nil, err
		}

		sleep := bo.NextBackOff()
		if sleep == backoff.Stop {
			return nil, err
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errs.New("", errs.CodeCancelled, errs.WithCause(ctx.Err()))
		case <-timer.C:
		}
	}
}

func retryable(err error) bool {
	switch errs.CodeOf(err) {
	case errs.CodePoolEmpty, errs.CodePoolFull, errs.CodeNoMatch:
		return true
	default:
		return false
	}
}
