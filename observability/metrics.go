package observability

// Metric names emitted by the pool family.
const (
	MetricCheckouts          = "pool_checkouts_total"
	MetricReturns            = "pool_returns_total"
	MetricDiscards           = "pool_discards_total"
	MetricEmptyEvents        = "pool_empty_total"
	MetricValidationFailures = "pool_validation_failures_total"
	MetricAvailableGauge     = "pool_available"
	MetricActiveGauge        = "pool_active"
	MetricWaitSeconds        = "pool_wait_seconds"
)

// Metrics provides counter, gauge, and histogram recording primitives.
type Metrics interface {
	IncCounter(name string, value float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

var defaultMetrics Metrics = noopMetrics{}

// SetMetrics overrides the global metrics implementation used by the module.
func SetMetrics(metrics Metrics) {
	if metrics == nil {
		defaultMetrics = noopMetrics{}
		return
	}
	defaultMetrics = metrics
}

// Telemetry returns the current global metrics collector.
func Telemetry() Metrics {
	return defaultMetrics
}

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, float64, map[string]string)       {}
func (noopMetrics) SetGauge(string, float64, map[string]string)         {}
func (noopMetrics) ObserveHistogram(string, float64, map[string]string) {}

// PoolLabels builds the standard label set for a named pool.
func PoolLabels(pool string) map[string]string {
	return map[string]string{"pool": pool}
}
