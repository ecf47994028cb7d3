package nats

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/cart-go/core/es"
)

func newTestStore(t *testing.T) *EventStore {
	t.Helper()

	store, err := NewEventStore(EventStoreConfig{
		Connect:    NewTestContainer(t),
		StreamName: "cart_es_test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEnvelopes(t *testing.T, streamID string, types ...string) []es.Envelope {
	t.Helper()

	out := make([]es.Envelope, 0, len(types))
	for i, typ := range types {
		out = append(out, es.Envelope{
			ID:         fmt.Sprintf("%s-%d", streamID, i),
			StreamType: "shopping_cart",
			StreamID:   streamID,
			Type:       typ,
			OccurredAt: time.Unix(1700000000, 0).UTC(),
			Data:       json.RawMessage(`{}`),
		})
	}
	return out
}

func TestEventStore_ReadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read(t.Context(), "shopping_cart", "nope")
	require.ErrorIs(t, err, es.ErrStreamNotFound)
}

func TestEventStore_AppendRead(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	res, err := store.Append(ctx, "shopping_cart", "c1", es.NoStream(),
		testEnvelopes(t, "c1", "opened", "item-added"))
	require.NoError(t, err)
	require.EqualValues(t, 1, res.NewRevision)

	res, err = store.Append(ctx, "shopping_cart", "c1", es.Exact(1),
		testEnvelopes(t, "c1-more", "confirmed"))
	require.NoError(t, err)
	require.EqualValues(t, 2, res.NewRevision)

	events, err := store.Read(ctx, "shopping_cart", "c1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.EqualValues(t, i, ev.Revision)
		assert.Equal(t, "c1", ev.StreamID)
	}
	assert.Equal(t, "opened", events[0].Type)
	assert.Equal(t, "confirmed", events[2].Type)
}

func TestEventStore_StreamsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.Append(ctx, "shopping_cart", "a", es.NoStream(), testEnvelopes(t, "a", "opened"))
	require.NoError(t, err)
	_, err = store.Append(ctx, "shopping_cart", "b", es.NoStream(), testEnvelopes(t, "b", "opened"))
	require.NoError(t, err)

	events, err := store.Read(ctx, "shopping_cart", "a")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "a", events[0].StreamID)
}

func TestEventStore_Expectations(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	// NoStream on an existing stream
	_, err := store.Append(ctx, "shopping_cart", "c1", es.NoStream(), testEnvelopes(t, "c1", "opened"))
	require.NoError(t, err)
	_, err = store.Append(ctx, "shopping_cart", "c1", es.NoStream(), testEnvelopes(t, "dup", "opened"))
	require.ErrorIs(t, err, es.ErrConcurrencyConflict)

	// stale exact revision
	_, err = store.Append(ctx, "shopping_cart", "c1", es.Exact(0), testEnvelopes(t, "x1", "item-added"))
	require.NoError(t, err)
	_, err = store.Append(ctx, "shopping_cart", "c1", es.Exact(0), testEnvelopes(t, "x2", "item-added"))
	require.ErrorIs(t, err, es.ErrConcurrencyConflict)

	// unconditional append always lands
	res, err := store.Append(ctx, "shopping_cart", "c1", es.Any(), testEnvelopes(t, "x3", "confirmed"))
	require.NoError(t, err)
	require.EqualValues(t, 2, res.NewRevision)

	// exact on a missing stream
	_, err = store.Append(ctx, "shopping_cart", "missing", es.Exact(0), testEnvelopes(t, "m", "opened"))
	require.ErrorIs(t, err, es.ErrConcurrencyConflict)
}

func TestEventStore_EmptyBatch(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Append(t.Context(), "shopping_cart", "c1", es.Any(), nil)
	require.ErrorIs(t, err, es.ErrStoreNoEvents)
}
