package es

import (
	"fmt"
)

// ApplyFunc advances a snapshot by one event. Implementations must be
// pure: no clock, no I/O, no mutation of the prior value. Returning an
// error wrapping ErrUnknownEventType marks the event as outside the
// aggregate's contract.
type ApplyFunc[S any] func(prior S, event any) (S, error)

// Fold reduces an ordered event sequence into the entity snapshot it
// determines, returning the snapshot together with the revision of the
// last applied event.
//
// An empty sequence means the entity was never created and fails with
// ErrStreamNotFound; the fold never runs against an undefined initial
// state - the entity's own "created" event establishes state from the
// zero value of S. Envelopes are applied strictly in stream order and
// their revisions must be gapless; a gap means the store handed back a
// corrupt or reordered stream.
func Fold[S any](envelopes []Envelope, decoder Decoder, apply ApplyFunc[S]) (S, Revision, error) {
	var state S

	if len(envelopes) == 0 {
		return state, 0, ErrStreamNotFound
	}

	var rev Revision
	for i, env := range envelopes {
		if want := Revision(i); env.Revision != want {
			return state, 0, fmt.Errorf("stream %s out of order: expected revision %d, got %d",
				StreamKey(env.StreamType, env.StreamID), want, env.Revision)
		}

		event, err := decoder.Decode(env)
		if err != nil {
			return state, 0, err
		}

		state, err = apply(state, event)
		if err != nil {
			return state, 0, fmt.Errorf("apply %s at revision %d: %w", env.Type, env.Revision, err)
		}
		rev = env.Revision
	}

	return state, rev, nil
}
