package cart

import (
	"errors"

	"github.com/codewandler/cart-go/core/es"
)

// Business-rule violations are expected outcomes: they are returned as
// plain error values to the caller and never retried by the core.
var (
	// ErrNotFound means the cart was never opened.
	ErrNotFound = errors.New("shopping cart not found")

	// ErrAlreadyExists means Open was issued for an existing cart.
	ErrAlreadyExists = errors.New("shopping cart already exists")

	// ErrCartNotOpen means a command was issued against a cart that is
	// not pending (confirmed or canceled).
	ErrCartNotOpen = errors.New("shopping cart is not open")

	// ErrCartIsEmpty means Confirm was issued for a cart with no lines.
	ErrCartIsEmpty = errors.New("shopping cart is empty")

	// ErrProductItemNotFound means a removal asked for more of a line
	// than the cart holds, or for a line that does not exist.
	ErrProductItemNotFound = errors.New("product item not found")

	// ErrInvalidProductItem means the submitted item fails basic shape
	// validation (empty product ID, non-positive quantity).
	ErrInvalidProductItem = errors.New("invalid product item")
)

// ErrorCode maps an error from the cart core to one stable code string
// suitable for direct surfacing at the boundary without leaking
// internal representation.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, es.ErrStreamNotFound):
		return "cart-not-found"
	case errors.Is(err, ErrAlreadyExists):
		return "cart-already-exists"
	case errors.Is(err, ErrCartNotOpen):
		return "cart-not-open"
	case errors.Is(err, ErrCartIsEmpty):
		return "cart-empty"
	case errors.Is(err, ErrProductItemNotFound):
		return "product-item-not-found"
	case errors.Is(err, ErrInvalidProductItem):
		return "invalid-product-item"
	case errors.Is(err, es.ErrConcurrencyConflict):
		return "concurrency-conflict"
	case errors.Is(err, es.ErrInvalidRevisionFormat):
		return "invalid-revision-format"
	case errors.Is(err, es.ErrUnknownEventType):
		return "unknown-event-type"
	default:
		return "internal"
	}
}
