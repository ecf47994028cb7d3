// Package cache provides a small key-value cache with LRU eviction and
// optional per-entry TTL. It backs read-side lookups such as product
// pricing; event streams are never cached - state freshness there is
// guaranteed by re-folding from the store.
package cache

import "time"

type PutOptions struct {
	TTL time.Duration
}

type PutOption func(*PutOptions)

// WithTTL sets a per-entry expiration. Expired entries are lazily
// evicted on access.
func WithTTL(ttl time.Duration) PutOption {
	return func(o *PutOptions) { o.TTL = ttl }
}

type Cache interface {
	Get(key string) (any, bool)
	Put(key string, val any, opts ...PutOption)
	Delete(key string)
}

// TypedCache is a compile-time type-safe view over a Cache.
type TypedCache[T any] interface {
	Get(key string) (T, bool)
	Put(key string, val T, opts ...PutOption)
	Delete(key string)
}

type typedCache[T any] struct {
	c Cache
}

func NewTyped[T any](c Cache) TypedCache[T] { return &typedCache[T]{c: c} }

func (t *typedCache[T]) Get(key string) (out T, ok bool) {
	v, ok := t.c.Get(key)
	if !ok {
		return out, false
	}
	out, ok = v.(T)
	return out, ok
}

func (t *typedCache[T]) Put(key string, val T, opts ...PutOption) { t.c.Put(key, val, opts...) }
func (t *typedCache[T]) Delete(key string)                        { t.c.Delete(key) }

var _ TypedCache[any] = (*typedCache[any])(nil)
