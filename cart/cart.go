// Package cart implements the shopping-cart aggregate: its events, the
// pure fold that rebuilds a cart snapshot from an event stream, and the
// decide functions that validate commands and emit new events.
package cart

import (
	"fmt"
	"time"

	"github.com/codewandler/cart-go/core/es"
)

// StreamType is the entity kind used to derive stream keys
// ("shopping_cart-<id>").
const StreamType = "shopping_cart"

// Status is the cart lifecycle state. The zero value means the cart was
// never opened. Transitions are one-way: pending -> confirmed or
// pending -> canceled; no command is accepted once the cart leaves
// pending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// ProductItem is the unpriced shape a client submits; the pricing
// collaborator turns it into a PricedProductItem before any event is
// produced.
type ProductItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// PricedProductItem is one cart line. Lines are keyed by
// (ProductID, UnitPrice): the same product at a different captured
// price is a separate line. UnitPrice is in minor currency units.
type PricedProductItem struct {
	ProductID string `json:"product_id"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

func (p PricedProductItem) TotalPrice() int64 { return p.UnitPrice * p.Quantity }

// ShoppingCart is the entity snapshot: a pure function of the event
// sequence up to some revision, never persisted directly. It has value
// semantics - Apply returns a new snapshot per step, so a snapshot
// handed to one caller is never aliased by another.
type ShoppingCart struct {
	ID           string              `json:"id"`
	ClientID     string              `json:"client_id"`
	Status       Status              `json:"status"`
	ProductItems []PricedProductItem `json:"product_items"`
	OpenedAt     time.Time           `json:"opened_at"`
	ConfirmedAt  time.Time           `json:"confirmed_at,omitzero"`
	CanceledAt   time.Time           `json:"canceled_at,omitzero"`
}

// Initial is the never-opened state, identical to the zero value. It
// exists so the starting point of a fold is named rather than implied.
func Initial() ShoppingCart { return ShoppingCart{} }

// IsOpened reports whether the cart exists at all.
func (c ShoppingCart) IsOpened() bool { return c.Status != "" }

// IsPending reports whether the cart still accepts commands.
func (c ShoppingCart) IsPending() bool { return c.Status == StatusPending }

// Quantity returns the current quantity of the line keyed by
// (productID, unitPrice), or 0 when no such line exists.
func (c ShoppingCart) Quantity(productID string, unitPrice int64) int64 {
	for _, item := range c.ProductItems {
		if item.ProductID == productID && item.UnitPrice == unitPrice {
			return item.Quantity
		}
	}
	return 0
}

// TotalPrice is the sum over all lines, in minor currency units.
func (c ShoppingCart) TotalPrice() int64 {
	var total int64
	for _, item := range c.ProductItems {
		total += item.TotalPrice()
	}
	return total
}

// Apply advances the snapshot by one event. It is the fold function
// handed to the stream aggregator: deterministic, side-effect free and
// strictly value-based. Events outside the cart's contract fail with
// es.ErrUnknownEventType - the stream carries data this code cannot
// interpret, which must never be silently skipped.
func Apply(c ShoppingCart, event any) (ShoppingCart, error) {
	switch e := event.(type) {
	case *Opened:
		c.ID = e.CartID
		c.ClientID = e.ClientID
		c.Status = StatusPending
		c.OpenedAt = e.OpenedAt
		c.ProductItems = nil
		return c, nil

	case *ProductItemAdded:
		c.ProductItems = addLine(c.ProductItems, e.Item)
		return c, nil

	case *ProductItemRemoved:
		c.ProductItems = removeLine(c.ProductItems, e.Item)
		return c, nil

	case *Confirmed:
		c.Status = StatusConfirmed
		c.ConfirmedAt = e.ConfirmedAt
		return c, nil

	case *Canceled:
		c.Status = StatusCanceled
		c.CanceledAt = e.CanceledAt
		return c, nil
	}

	return c, fmt.Errorf("%w: %T", es.ErrUnknownEventType, event)
}

// addLine merges the item into an existing line with the same
// (ProductID, UnitPrice) key, or appends a new line. Insertion order of
// all other lines is preserved. The input slice is never mutated.
func addLine(lines []PricedProductItem, item PricedProductItem) []PricedProductItem {
	out := make([]PricedProductItem, len(lines))
	copy(out, lines)

	for i, line := range out {
		if line.ProductID == item.ProductID && line.UnitPrice == item.UnitPrice {
			out[i].Quantity += item.Quantity
			return out
		}
	}
	return append(out, item)
}

// removeLine subtracts the item's quantity from its line, deleting the
// line when the quantity reaches zero or below. A missing line is
// skipped: the decide step already rejects removal of a nonexistent
// line, so this branch only guards replays of an event validated
// against different state - the visible snapshot must never hold a
// negative quantity.
func removeLine(lines []PricedProductItem, item PricedProductItem) []PricedProductItem {
	out := make([]PricedProductItem, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == item.ProductID && line.UnitPrice == item.UnitPrice {
			if remaining := line.Quantity - item.Quantity; remaining > 0 {
				line.Quantity = remaining
				out = append(out, line)
			}
			continue
		}
		out = append(out, line)
	}
	return out
}
