package pricing

import (
	"context"
	"time"

	"github.com/codewandler/cart-go/core/cache"
	"github.com/codewandler/cart-go/core/sf"
)

// CachedPricer decorates a ProductPricer with an LRU cache and
// single-flight deduplication, so a burst of commands for the same
// product performs one upstream lookup.
type CachedPricer struct {
	inner  ProductPricer
	cache  cache.TypedCache[Price]
	flight *sf.Singleflight[Price]
	ttl    time.Duration
}

type CachedPricerOpts struct {
	Size int           // LRU size, default 128
	TTL  time.Duration // per-entry expiry, default 1m
}

func NewCached(inner ProductPricer, opts CachedPricerOpts) *CachedPricer {
	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}
	return &CachedPricer{
		inner:  inner,
		cache:  cache.NewTyped[Price](cache.NewLRU(cache.LRUOpts{Size: opts.Size})),
		flight: sf.New[Price](),
		ttl:    opts.TTL,
	}
}

func (c *CachedPricer) Price(ctx context.Context, productID string) (*Price, error) {
	if p, ok := c.cache.Get(productID); ok {
		return &p, nil
	}
	return c.flight.Do(productID, func() (*Price, error) {
		p, err := c.inner.Price(ctx, productID)
		if err != nil {
			return nil, err
		}
		c.cache.Put(productID, *p, cache.WithTTL(c.ttl))
		return p, nil
	})
}

var _ ProductPricer = (*CachedPricer)(nil)
