package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var now = time.Unix(1700000000, 0)

func TestDecide_Open(t *testing.T) {
	events, err := Decide(Initial(), Open{CartID: "cart-1", ClientID: "client-1"}, now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, &Opened{CartID: "cart-1", ClientID: "client-1", OpenedAt: now}, events[0])
}

func TestDecide_Open_AlreadyExists(t *testing.T) {
	_, err := Decide(openedCart(t), Open{CartID: "cart-1", ClientID: "client-1"}, now)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDecide_AddProductItem(t *testing.T) {
	events, err := Decide(openedCart(t), AddProductItem{Item: shoes}, now)
	require.NoError(t, err)
	require.Equal(t, &ProductItemAdded{Item: shoes, AddedAt: now}, events[0])
}

func TestDecide_AddProductItem_NotOpen(t *testing.T) {
	// never opened
	_, err := Decide(ShoppingCart{}, AddProductItem{Item: shoes}, now)
	require.ErrorIs(t, err, ErrCartNotOpen)

	// terminal states refuse all commands permanently
	confirmed, _ := Apply(openedCart(t), &Confirmed{ConfirmedAt: now})
	_, err = Decide(confirmed, AddProductItem{Item: shoes}, now)
	require.ErrorIs(t, err, ErrCartNotOpen)

	canceled, _ := Apply(openedCart(t), &Canceled{CanceledAt: now})
	_, err = Decide(canceled, AddProductItem{Item: shoes}, now)
	require.ErrorIs(t, err, ErrCartNotOpen)
}

func TestDecide_AddProductItem_Invalid(t *testing.T) {
	for _, item := range []PricedProductItem{
		{ProductID: "", UnitPrice: 100, Quantity: 1},
		{ProductID: "shoes", UnitPrice: 100, Quantity: 0},
		{ProductID: "shoes", UnitPrice: 100, Quantity: -2},
		{ProductID: "shoes", UnitPrice: -1, Quantity: 1},
	} {
		_, err := Decide(openedCart(t), AddProductItem{Item: item}, now)
		require.ErrorIs(t, err, ErrInvalidProductItem)
	}
}

func TestDecide_RemoveProductItem(t *testing.T) {
	c, _ := Apply(openedCart(t), &ProductItemAdded{Item: shoes}) // qty 2

	events, err := Decide(c, RemoveProductItem{
		Item: PricedProductItem{ProductID: "shoes", UnitPrice: 2500, Quantity: 2},
	}, now)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestDecide_RemoveProductItem_ExceedsQuantity(t *testing.T) {
	c, _ := Apply(openedCart(t), &ProductItemAdded{
		Item: PricedProductItem{ProductID: "shoes", UnitPrice: 2500, Quantity: 1},
	})

	// asking for more than the line holds is rejected before any
	// event exists - the fold never compensates for it
	_, err := Decide(c, RemoveProductItem{
		Item: PricedProductItem{ProductID: "shoes", UnitPrice: 2500, Quantity: 2},
	}, now)
	require.ErrorIs(t, err, ErrProductItemNotFound)
}

func TestDecide_RemoveProductItem_WrongPrice(t *testing.T) {
	c, _ := Apply(openedCart(t), &ProductItemAdded{Item: shoes})

	// lines are keyed by (product, unit price); a different price is a
	// different line
	_, err := Decide(c, RemoveProductItem{
		Item: PricedProductItem{ProductID: "shoes", UnitPrice: 1999, Quantity: 1},
	}, now)
	require.ErrorIs(t, err, ErrProductItemNotFound)
}

func TestDecide_RemoveBeforeAdd(t *testing.T) {
	// order sensitivity: remove-then-add is rejected at decide time,
	// never silently absorbed by the fold
	_, err := Decide(openedCart(t), RemoveProductItem{Item: shoes}, now)
	require.ErrorIs(t, err, ErrProductItemNotFound)
}

func TestDecide_Confirm(t *testing.T) {
	c, _ := Apply(openedCart(t), &ProductItemAdded{Item: shoes})
	events, err := Decide(c, Confirm{}, now)
	require.NoError(t, err)
	require.Equal(t, &Confirmed{ConfirmedAt: now}, events[0])
}

func TestDecide_Confirm_Empty(t *testing.T) {
	_, err := Decide(openedCart(t), Confirm{}, now)
	require.ErrorIs(t, err, ErrCartIsEmpty)
}

func TestDecide_Cancel(t *testing.T) {
	events, err := Decide(openedCart(t), Cancel{}, now)
	require.NoError(t, err)
	require.Equal(t, &Canceled{CanceledAt: now}, events[0])

	canceled, _ := Apply(openedCart(t), &Canceled{CanceledAt: now})
	_, err = Decide(canceled, Cancel{}, now)
	require.ErrorIs(t, err, ErrCartNotOpen)
}
