package es

import (
	"context"
)

type (
	// StoreAppendResult reports the stream revision after a successful
	// append, i.e. the revision of the last event written.
	StoreAppendResult struct {
		NewRevision Revision
	}

	// EventStore stores and loads envelopes per entity stream.
	//
	// Read returns the full ordered stream, failing with
	// ErrStreamNotFound when no event was ever appended. Append writes
	// the batch atomically iff expected holds against the stream at the
	// moment of the append; a failed expectation is
	// ErrConcurrencyConflict and writes nothing. A batch is never
	// partially visible.
	EventStore interface {
		Read(ctx context.Context, streamType, streamID string) ([]Envelope, error)
		Append(ctx context.Context, streamType, streamID string, expected ExpectedRevision, events []Envelope) (*StoreAppendResult, error)
	}
)
