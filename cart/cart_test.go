package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/cart-go/core/es"
)

var (
	shoes = PricedProductItem{ProductID: "shoes", UnitPrice: 2500, Quantity: 2}
	hat   = PricedProductItem{ProductID: "hat", UnitPrice: 900, Quantity: 1}
)

func openedCart(t *testing.T) ShoppingCart {
	t.Helper()
	c, err := Apply(Initial(), &Opened{
		CartID:   "cart-1",
		ClientID: "client-1",
		OpenedAt: time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	return c
}

func TestApply_Opened(t *testing.T) {
	c := openedCart(t)
	require.Equal(t, "cart-1", c.ID)
	require.Equal(t, "client-1", c.ClientID)
	require.Equal(t, StatusPending, c.Status)
	require.True(t, c.IsPending())
	require.Empty(t, c.ProductItems)
}

func TestApply_AddMergesByProductAndPrice(t *testing.T) {
	c := openedCart(t)

	c, err := Apply(c, &ProductItemAdded{Item: shoes})
	require.NoError(t, err)
	c, err = Apply(c, &ProductItemAdded{Item: hat})
	require.NoError(t, err)

	// same product, same price: quantities merge in place
	c, err = Apply(c, &ProductItemAdded{Item: shoes})
	require.NoError(t, err)
	require.Len(t, c.ProductItems, 2)
	require.EqualValues(t, 4, c.Quantity("shoes", 2500))

	// same product, different captured price: separate line
	c, err = Apply(c, &ProductItemAdded{Item: PricedProductItem{ProductID: "shoes", UnitPrice: 1999, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, c.ProductItems, 3)
	require.EqualValues(t, 1, c.Quantity("shoes", 1999))

	// insertion order preserved
	require.Equal(t, "shoes", c.ProductItems[0].ProductID)
	require.Equal(t, "hat", c.ProductItems[1].ProductID)
}

func TestApply_RemoveDeletesDrainedLine(t *testing.T) {
	c := openedCart(t)
	c, _ = Apply(c, &ProductItemAdded{Item: shoes}) // qty 2

	c, err := Apply(c, &ProductItemRemoved{Item: PricedProductItem{ProductID: "shoes", UnitPrice: 2500, Quantity: 1}})
	require.NoError(t, err)
	require.EqualValues(t, 1, c.Quantity("shoes", 2500))

	c, err = Apply(c, &ProductItemRemoved{Item: PricedProductItem{ProductID: "shoes", UnitPrice: 2500, Quantity: 1}})
	require.NoError(t, err)
	require.Empty(t, c.ProductItems)
}

func TestApply_RemoveDefendsAgainstReplay(t *testing.T) {
	c := openedCart(t)
	c, _ = Apply(c, &ProductItemAdded{Item: hat}) // qty 1

	// removal exceeding the line quantity never yields a negative
	// visible quantity; the line is simply gone
	c, err := Apply(c, &ProductItemRemoved{Item: PricedProductItem{ProductID: "hat", UnitPrice: 900, Quantity: 5}})
	require.NoError(t, err)
	require.Zero(t, c.Quantity("hat", 900))

	// removing a line that does not exist at all is skipped
	before := c
	c, err = Apply(c, &ProductItemRemoved{Item: shoes})
	require.NoError(t, err)
	require.Equal(t, before.ProductItems, c.ProductItems)
}

func TestApply_ValueSemantics(t *testing.T) {
	c := openedCart(t)
	c, _ = Apply(c, &ProductItemAdded{Item: shoes})

	// applying to a snapshot never mutates the prior value
	next, err := Apply(c, &ProductItemAdded{Item: shoes})
	require.NoError(t, err)
	require.EqualValues(t, 2, c.Quantity("shoes", 2500))
	require.EqualValues(t, 4, next.Quantity("shoes", 2500))
}

func TestApply_Terminal(t *testing.T) {
	at := time.Unix(1700000100, 0)

	c := openedCart(t)
	c, err := Apply(c, &Confirmed{ConfirmedAt: at})
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, c.Status)
	require.Equal(t, at, c.ConfirmedAt)
	require.False(t, c.IsPending())

	c = openedCart(t)
	c, err = Apply(c, &Canceled{CanceledAt: at})
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, c.Status)
	require.Equal(t, at, c.CanceledAt)
}

func TestApply_UnknownEvent(t *testing.T) {
	type exploded struct{}
	_, err := Apply(openedCart(t), &exploded{})
	require.ErrorIs(t, err, es.ErrUnknownEventType)
}

func TestTotalPrice(t *testing.T) {
	c := openedCart(t)
	c, _ = Apply(c, &ProductItemAdded{Item: shoes}) // 2 * 2500
	c, _ = Apply(c, &ProductItemAdded{Item: hat})   // 1 * 900
	require.EqualValues(t, 5900, c.TotalPrice())
}
