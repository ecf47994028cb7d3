package es

import "errors"

var (
	// ErrStreamNotFound is returned when a stream has no events at all,
	// i.e. the entity was never created. Distinct from an entity that
	// exists but holds no data.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrConcurrencyConflict is returned when an append's expected
	// revision does not match the stream's current revision.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrUnknownEventType is returned when a persisted event cannot be
	// decoded or applied. This is an invariant violation, not a business
	// outcome: the stream carries an event the deployed code does not
	// understand.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrStoreNoEvents is returned by stores when asked to append an
	// empty batch. The repository short-circuits empty appends before
	// the store is ever contacted.
	ErrStoreNoEvents = errors.New("no events to store")
)
