package pool

import "fmt"

// highUtilizationThreshold marks the utilization ratio above which the pool is
// reported unhealthy.
const highUtilizationThreshold = 0.9

// HealthStatus summarizes a pool's current condition for health endpoints.
type HealthStatus struct {
	Healthy     bool     `json:"healthy"`
	Utilization float64  `json:"utilization"`
	Available   int      `json:"available"`
	Active      int      `json:"active"`
	Capacity    int      `json:"capacity"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Health evaluates the pool's health from a counter snapshot. Utilization
// above 90% marks the pool unhealthy; an empty available container adds a
// warning without failing the check.
func (p *Pool[T]) Health() HealthStatus {
	stats := p.Stats()
	return evaluateHealth(stats.Available, stats.Active, stats.Capacity)
}

func evaluateHealth(available, active, capacity int) HealthStatus {
	utilization := 0.0
	if capacity > 0 {
		utilization = float64(active) / float64(capacity)
	}

	var warnings []string
	healthy := true

	if utilization > highUtilizationThreshold {
		warnings = append(warnings, fmt.Sprintf("high utilization: %.1f%%", utilization*100))
		healthy = false
	}
	if available == 0 && capacity > 0 {
		warnings = append(warnings, "pool is empty")
	}

	return HealthStatus{
		Healthy:     healthy,
		Utilization: utilization,
		Available:   available,
		Active:      active,
		Capacity:    capacity,
		Warnings:    warnings,
	}
}
