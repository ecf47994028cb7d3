// Package pricing defines the product pricing collaborator consumed by
// the cart service. The core never stores prices; it captures the
// looked-up unit price into the emitted event, so a later price change
// never rewrites history.
package pricing

import (
	"context"
	"errors"
)

// ErrProductUnavailable is returned when no price exists for a product.
var ErrProductUnavailable = errors.New("product unavailable")

// Price is the current unit price of one product, in minor currency
// units.
type Price struct {
	ProductID string `json:"product_id"`
	UnitPrice int64  `json:"unit_price"`
	Currency  string `json:"currency"`
}

// ProductPricer resolves the current price of a product.
type ProductPricer interface {
	Price(ctx context.Context, productID string) (*Price, error)
}

// StaticPricer serves prices from a fixed in-memory list. Useful for
// tests and demos.
type StaticPricer struct {
	prices map[string]Price
}

func NewStatic(prices ...Price) *StaticPricer {
	m := make(map[string]Price, len(prices))
	for _, p := range prices {
		m[p.ProductID] = p
	}
	return &StaticPricer{prices: m}
}

func (s *StaticPricer) Price(_ context.Context, productID string) (*Price, error) {
	p, ok := s.prices[productID]
	if !ok {
		return nil, ErrProductUnavailable
	}
	return &p, nil
}

var _ ProductPricer = (*StaticPricer)(nil)
