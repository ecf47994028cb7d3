// Package es provides the event-sourcing engine: an append-only event
// store contract, a generic stream fold that rebuilds entity state from
// an ordered event sequence, and a repository that ties the two together
// with optimistic concurrency control.
//
// # Model
//
// Every entity instance owns one stream. A stream is an ordered,
// append-only sequence of envelopes; the zero-based position of the last
// envelope is the stream's [Revision]. State is never persisted - it is
// always recomputed by folding the stream:
//
//	cart, rev, err := es.Fold(envelopes, registry, cart.Apply)
//
// The fold is a pure function: identical event sequences always yield
// identical state. An event type the fold cannot interpret is a fatal
// [ErrUnknownEventType]; it indicates a deployed-code/data mismatch and
// must reach a top-level fault boundary, never be skipped.
//
// # Deciding
//
// Domain packages express their state machine as free functions over an
// immutable snapshot value:
//
//	apply(state, event) -> (state, error)
//	decide(state, command) -> ([]event, error)
//
// Validation happens in decide, against the folded snapshot, before any
// event exists. A rejected command is an ordinary error value, not a
// panic.
//
// # Optimistic concurrency
//
// [Repository.Handle] reads a stream, folds it, runs a decide function
// and appends the produced events under an [ExpectedRevision]. Two
// writers racing on the same stream cannot both succeed: the store
// serializes conditional appends and the loser receives
// [ErrConcurrencyConflict]. The engine never retries - re-validation
// against fresh state is the caller's decision.
//
// # Events are registered before they can be decoded
//
//	registry := es.NewRegistry()
//	es.RegisterEvents(registry, es.Event[Opened](), es.Event[Confirmed]())
//
// Use [NewInMemoryStore] for tests and development; the adapters/nats
// package provides a durable JetStream-backed store.
package es
