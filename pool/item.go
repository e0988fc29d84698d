package pool

import "time"

// item wraps a pooled payload together with its lifecycle metadata. At any
// instant an item is in exactly one place: the available container, an active
// lease, or discarded.
type item[T any] struct {
	value          T
	id             uint64
	createdAt      time.Time
	lastReturnedAt time.Time
	useCount       uint64
}
