package pool

import "github.com/esoxlabs/objectpool/observability"

// Stats is a point-in-time snapshot of a pool's counters. Strictly read-only:
// consuming it never feeds back into pool control flow.
type Stats struct {
	Pool               string  `json:"pool"`
	Available          int     `json:"available"`
	Active             int     `json:"active"`
	Capacity           int     `json:"capacity"`
	Live               int     `json:"live"`
	TotalCreated       uint64  `json:"total_created"`
	TotalRetrieved     uint64  `json:"total_retrieved"`
	TotalReturned      uint64  `json:"total_returned"`
	Discarded          uint64  `json:"discarded"`
	EmptyEvents        uint64  `json:"empty_events"`
	ValidationFailures uint64  `json:"validation_failures"`
	Utilization        float64 `json:"utilization"`
	BreakerState       string  `json:"breaker_state"`
}

// Stats captures the pool's current counters and publishes the availability
// gauges.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	available := len(p.available)
	active := len(p.active)
	live := p.live
	p.mu.Unlock()

	state := "disabled"
	if p.brk != nil {
		state = p.brk.State().String()
	}

	utilization := 0.0
	if p.capacity > 0 {
		utilization = float64(active) / float64(p.capacity)
	}

	labels := observability.PoolLabels(p.name)
	observability.Telemetry().SetGauge(observability.MetricAvailableGauge, float64(available), labels)
	observability.Telemetry().SetGauge(observability.MetricActiveGauge, float64(active), labels)

	return Stats{
		Pool:               p.name,
		Available:          available,
		Active:             active,
		Capacity:           p.capacity,
		Live:               live,
		TotalCreated:       p.stats.created.Load(),
		TotalRetrieved:     p.stats.retrieved.Load(),
		TotalReturned:      p.stats.returned.Load(),
		Discarded:          p.stats.discarded.Load(),
		EmptyEvents:        p.stats.emptyEvents.Load(),
		ValidationFailures: p.stats.validationFailures.Load(),
		Utilization:        utilization,
		BreakerState:       state,
	}
}
