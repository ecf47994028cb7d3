package pricing

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticPricer(t *testing.T) {
	p := NewStatic(Price{ProductID: "shoes", UnitPrice: 2500, Currency: "USD"})

	price, err := p.Price(t.Context(), "shoes")
	require.NoError(t, err)
	require.EqualValues(t, 2500, price.UnitPrice)

	_, err = p.Price(t.Context(), "hat")
	require.ErrorIs(t, err, ErrProductUnavailable)
}

type countingPricer struct {
	inner ProductPricer
	calls atomic.Int64
}

func (c *countingPricer) Price(ctx context.Context, productID string) (*Price, error) {
	c.calls.Add(1)
	return c.inner.Price(ctx, productID)
}

func TestCachedPricer(t *testing.T) {
	upstream := &countingPricer{inner: NewStatic(Price{ProductID: "shoes", UnitPrice: 2500})}
	cached := NewCached(upstream, CachedPricerOpts{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := cached.Price(t.Context(), "shoes")
			require.NoError(t, err)
			require.EqualValues(t, 2500, p.UnitPrice)
		}()
	}
	wg.Wait()

	// single-flight plus cache: far fewer upstream calls than callers
	require.LessOrEqual(t, upstream.calls.Load(), int64(16))
	require.GreaterOrEqual(t, upstream.calls.Load(), int64(1))

	// hit again, now definitely cached
	before := upstream.calls.Load()
	_, err := cached.Price(t.Context(), "shoes")
	require.NoError(t, err)
	require.Equal(t, before, upstream.calls.Load())

	// misses are not cached
	_, err = cached.Price(t.Context(), "hat")
	require.ErrorIs(t, err, ErrProductUnavailable)
}
