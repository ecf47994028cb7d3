package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/cart-go/core/es"
	"github.com/codewandler/cart-go/core/metrics"
)

// esMetrics implements es.ESMetrics using Prometheus.
type esMetrics struct {
	// Store metrics
	storeReadDuration   *prometheus.HistogramVec
	storeAppendDuration *prometheus.HistogramVec
	eventsAppended      *prometheus.CounterVec

	// Repository metrics
	handleDuration       *prometheus.HistogramVec
	concurrencyConflicts *prometheus.CounterVec
	commandsRejected     *prometheus.CounterVec
}

// NewESMetrics creates a new Prometheus implementation of ESMetrics.
func NewESMetrics(reg prometheus.Registerer) es.ESMetrics {
	m := &esMetrics{
		storeReadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cart_es_store_read_duration_seconds",
			Help:    "Event store read latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"stream_type"}),

		storeAppendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cart_es_store_append_duration_seconds",
			Help:    "Event store append latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"stream_type"}),

		eventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_es_events_appended_total",
			Help: "Total number of events appended",
		}, []string{"stream_type"}),

		handleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cart_es_handle_duration_seconds",
			Help:    "Command handling latency in seconds (read, decide, append)",
			Buckets: defaultBuckets,
		}, []string{"stream_type"}),

		concurrencyConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_es_concurrency_conflicts_total",
			Help: "Total number of optimistic lock failures",
		}, []string{"stream_type"}),

		commandsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_es_commands_rejected_total",
			Help: "Total number of commands rejected by the state machine",
		}, []string{"stream_type"}),
	}

	reg.MustRegister(
		m.storeReadDuration,
		m.storeAppendDuration,
		m.eventsAppended,
		m.handleDuration,
		m.concurrencyConflicts,
		m.commandsRejected,
	)

	return m
}

func (m *esMetrics) StoreReadDuration(streamType string) metrics.Timer {
	return newTimer(m.storeReadDuration.WithLabelValues(streamType))
}

func (m *esMetrics) StoreAppendDuration(streamType string) metrics.Timer {
	return newTimer(m.storeAppendDuration.WithLabelValues(streamType))
}

func (m *esMetrics) EventsAppended(streamType string, count int) {
	m.eventsAppended.WithLabelValues(streamType).Add(float64(count))
}

func (m *esMetrics) HandleDuration(streamType string) metrics.Timer {
	return newTimer(m.handleDuration.WithLabelValues(streamType))
}

func (m *esMetrics) ConcurrencyConflict(streamType string) {
	m.concurrencyConflicts.WithLabelValues(streamType).Inc()
}

func (m *esMetrics) CommandRejected(streamType string) {
	m.commandsRejected.WithLabelValues(streamType).Inc()
}

var _ es.ESMetrics = (*esMetrics)(nil)
