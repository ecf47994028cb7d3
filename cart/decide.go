package cart

import (
	"fmt"
	"time"
)

// Commands. A command is a request to attempt a state transition; it
// may be rejected without any event being produced.
type (
	Open struct {
		CartID   string
		ClientID string
	}

	AddProductItem struct {
		Item PricedProductItem
	}

	RemoveProductItem struct {
		Item PricedProductItem
	}

	Confirm struct{}

	Cancel struct{}
)

// Command is the closed set of shopping-cart commands.
type Command interface{ isCartCommand() }

func (Open) isCartCommand()              {}
func (AddProductItem) isCartCommand()    {}
func (RemoveProductItem) isCartCommand() {}
func (Confirm) isCartCommand()           {}
func (Cancel) isCartCommand()            {}

// Decide validates cmd against the folded snapshot and emits the
// resulting events, or rejects the command with a business error. All
// precondition checks happen here, before any event exists - never
// inside the fold. now is passed in so the decision stays deterministic
// and testable; it only stamps the emitted events.
func Decide(c ShoppingCart, cmd Command, now time.Time) ([]any, error) {
	switch cmd := cmd.(type) {
	case Open:
		if c.IsOpened() {
			return nil, ErrAlreadyExists
		}
		return []any{&Opened{
			CartID:   cmd.CartID,
			ClientID: cmd.ClientID,
			OpenedAt: now,
		}}, nil

	case AddProductItem:
		if err := validateItem(cmd.Item); err != nil {
			return nil, err
		}
		if !c.IsPending() {
			return nil, ErrCartNotOpen
		}
		return []any{&ProductItemAdded{Item: cmd.Item, AddedAt: now}}, nil

	case RemoveProductItem:
		if err := validateItem(cmd.Item); err != nil {
			return nil, err
		}
		if !c.IsPending() {
			return nil, ErrCartNotOpen
		}
		if c.Quantity(cmd.Item.ProductID, cmd.Item.UnitPrice) < cmd.Item.Quantity {
			return nil, fmt.Errorf("%w: %s at unit price %d",
				ErrProductItemNotFound, cmd.Item.ProductID, cmd.Item.UnitPrice)
		}
		return []any{&ProductItemRemoved{Item: cmd.Item, RemovedAt: now}}, nil

	case Confirm:
		if !c.IsPending() {
			return nil, ErrCartNotOpen
		}
		if len(c.ProductItems) == 0 {
			return nil, ErrCartIsEmpty
		}
		return []any{&Confirmed{ConfirmedAt: now}}, nil

	case Cancel:
		if !c.IsPending() {
			return nil, ErrCartNotOpen
		}
		return []any{&Canceled{CanceledAt: now}}, nil
	}

	return nil, fmt.Errorf("unknown command: %T", cmd)
}

func validateItem(item PricedProductItem) error {
	if item.ProductID == "" {
		return fmt.Errorf("%w: product id is empty", ErrInvalidProductItem)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidProductItem)
	}
	if item.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price is negative", ErrInvalidProductItem)
	}
	return nil
}
