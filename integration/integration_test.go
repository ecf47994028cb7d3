package integration

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/cart-go/adapters/nats"
	"github.com/codewandler/cart-go/cart"
	"github.com/codewandler/cart-go/core/es"
	"github.com/codewandler/cart-go/ports/pricing"
	"github.com/codewandler/cart-go/ports/users"
)

// TestIntegration runs the whole cart lifecycle against a real NATS
// JetStream event store: the durable store enforces the same revision
// semantics the in-memory store does.
func TestIntegration(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	connect := nats.ReuseConnection(nats.NewTestContainer(t))

	store, err := nats.NewEventStore(nats.EventStoreConfig{
		Connect:    connect,
		StreamName: "cart_es_integration",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	kvStore, err := nats.NewKVStore(nats.KVConfig{
		Connect: connect,
		Bucket:  "cart_integration",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kvStore.Close() })

	ctx := t.Context()

	dir := users.NewKVDirectory(kvStore)
	require.NoError(t, dir.PutUser(ctx, users.User{ID: "client-1", Name: "alice"}))

	repo := cart.NewRepository(slog.Default(), store)
	pricer := pricing.NewStatic(
		pricing.Price{ProductID: "shoes", UnitPrice: 2500, Currency: "USD"},
		pricing.Price{ProductID: "hat", UnitPrice: 900, Currency: "USD"},
	)
	svc := cart.NewService(slog.Default(), repo, pricer, cart.WithUserDirectory(dir))
	t.Cleanup(svc.Close)

	// unknown client cannot open a cart
	_, _, err = svc.Open(ctx, "cart-x", "ghost")
	require.ErrorIs(t, err, users.ErrUserNotFound)

	id, rev, err := svc.Open(ctx, "cart-1", "client-1")
	require.NoError(t, err)
	require.Equal(t, "cart-1", id)
	require.EqualValues(t, 0, rev)

	rev, err = svc.AddProductItem(ctx, "cart-1", es.Exact(0), cart.ProductItem{ProductID: "shoes", Quantity: 2})
	require.NoError(t, err)
	require.EqualValues(t, 1, rev)

	rev, err = svc.AddProductItem(ctx, "cart-1", es.Exact(1), cart.ProductItem{ProductID: "hat", Quantity: 1})
	require.NoError(t, err)
	require.EqualValues(t, 2, rev)

	// a stale writer loses the race
	_, err = svc.Confirm(ctx, "cart-1", es.Exact(0))
	require.ErrorIs(t, err, es.ErrConcurrencyConflict)

	rev, err = svc.RemoveProductItem(ctx, "cart-1", es.Exact(2), cart.PricedProductItem{
		ProductID: "hat", UnitPrice: 900, Quantity: 1,
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, rev)

	rev, err = svc.Confirm(ctx, "cart-1", es.Exact(3))
	require.NoError(t, err)
	require.EqualValues(t, 4, rev)

	// the snapshot folded back from the durable stream
	c, rev, err := svc.Get(ctx, "cart-1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, rev)
	assert.Equal(t, cart.StatusConfirmed, c.Status)
	assert.Equal(t, []cart.PricedProductItem{
		{ProductID: "shoes", UnitPrice: 2500, Quantity: 2},
	}, c.ProductItems)
	assert.EqualValues(t, 5000, c.TotalPrice())

	// confirmed carts are terminal
	_, err = svc.Cancel(ctx, "cart-1", nil)
	require.ErrorIs(t, err, cart.ErrCartNotOpen)
}
