package es

import "github.com/codewandler/cart-go/core/metrics"

// ESMetrics is the instrumentation surface of the engine. All methods
// must be safe for concurrent use.
type ESMetrics interface {
	StoreReadDuration(streamType string) metrics.Timer
	StoreAppendDuration(streamType string) metrics.Timer
	EventsAppended(streamType string, count int)

	HandleDuration(streamType string) metrics.Timer
	ConcurrencyConflict(streamType string)
	CommandRejected(streamType string)
}

type nopESMetrics struct{}

func (nopESMetrics) StoreReadDuration(string) metrics.Timer   { return metrics.NopTimer() }
func (nopESMetrics) StoreAppendDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopESMetrics) EventsAppended(string, int)               {}

func (nopESMetrics) HandleDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopESMetrics) ConcurrencyConflict(string)          {}
func (nopESMetrics) CommandRejected(string)              {}

// NopESMetrics returns a no-op ESMetrics implementation.
func NopESMetrics() ESMetrics { return nopESMetrics{} }
