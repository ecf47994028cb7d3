package cart

import "time"

// Domain events. Once appended they are immutable facts; together they
// fully determine a cart's state at any revision. Each event declares
// its own wire-stable type tag via EventType, so renaming a Go type
// never breaks decoding of persisted streams.
type (
	// Opened establishes the cart's initial state from nothing.
	Opened struct {
		CartID   string    `json:"cart_id"`
		ClientID string    `json:"client_id"`
		OpenedAt time.Time `json:"opened_at"`
	}

	// ProductItemAdded records a priced line item entering the cart.
	ProductItemAdded struct {
		Item    PricedProductItem `json:"product_item"`
		AddedAt time.Time         `json:"added_at"`
	}

	// ProductItemRemoved records a quantity leaving an existing line.
	ProductItemRemoved struct {
		Item      PricedProductItem `json:"product_item"`
		RemovedAt time.Time         `json:"removed_at"`
	}

	// Confirmed closes the cart successfully. Terminal.
	Confirmed struct {
		ConfirmedAt time.Time `json:"confirmed_at"`
	}

	// Canceled abandons the cart. Terminal.
	Canceled struct {
		CanceledAt time.Time `json:"canceled_at"`
	}
)

func (Opened) EventType() string             { return "shopping-cart-opened" }
func (ProductItemAdded) EventType() string   { return "product-item-added-to-shopping-cart" }
func (ProductItemRemoved) EventType() string { return "product-item-removed-from-shopping-cart" }
func (Confirmed) EventType() string          { return "shopping-cart-confirmed" }
func (Canceled) EventType() string           { return "shopping-cart-canceled" }
