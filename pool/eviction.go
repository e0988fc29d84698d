package pool

import "time"

// EvictionPolicy decides when an item is too old to hand out again. It is a
// pure evaluator: staleness is checked only at checkout and return, never by a
// background sweeper.
type EvictionPolicy struct {
	// TTL expires an item a fixed duration after creation. Zero disables it.
	TTL time.Duration
	// IdleTimeout expires an item that has sat unused since its last return.
	// Zero disables it.
	IdleTimeout time.Duration
}

// Enabled reports whether any eviction rule is configured.
func (p EvictionPolicy) Enabled() bool {
	return p.TTL > 0 || p.IdleTimeout > 0
}

// Stale reports whether an item created at createdAt and last returned at
// lastReturnedAt is disqualified from reuse at time now.
func (p EvictionPolicy) Stale(now, createdAt, lastReturnedAt time.Time) bool {
	if p.TTL > 0 && now.Sub(createdAt) > p.TTL {
		return true
	}
	if p.IdleTimeout > 0 && now.Sub(lastReturnedAt) > p.IdleTimeout {
		return true
	}
	return false
}

// TTLExpired reports whether the age-based rule alone disqualifies the item.
// Used at return time, where the item was in use until this instant and the
// idle rule cannot apply.
func (p EvictionPolicy) TTLExpired(now, createdAt time.Time) bool {
	return p.TTL > 0 && now.Sub(createdAt) > p.TTL
}
