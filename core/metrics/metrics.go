// Package metrics provides abstract instrumentation interfaces so core
// packages stay decoupled from any concrete backend. The
// adapters/prometheus package provides the production implementation.
package metrics

// Counter is a monotonically increasing metric.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()
	// Add increments the counter by delta. delta must be >= 0.
	Add(delta float64)
}

// Histogram samples observations (e.g. request latencies) and counts
// them in configurable buckets.
type Histogram interface {
	// Observe adds a single observation to the histogram.
	Observe(value float64)
}

// Timer measures the duration of an operation. Call ObserveDuration
// when the operation completes to record the elapsed time:
//
//	defer m.StoreReadDuration("shopping_cart").ObserveDuration()
type Timer interface {
	ObserveDuration()
}
