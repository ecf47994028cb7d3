// Package sf provides a generic single-flight wrapper: only one
// execution of a function is in-flight per key at a time, and
// concurrent callers for the same key share the first call's result.
// Used to deduplicate expensive lookups (e.g. pricing) on cache misses.
package sf

import "golang.org/x/sync/singleflight"

// Singleflight deduplicates concurrent function calls with the same key.
type Singleflight[T any] struct {
	group singleflight.Group
}

// New creates a new Singleflight instance for type T.
func New[T any]() *Singleflight[T] {
	return &Singleflight[T]{}
}

// Do executes fn for the given key, deduplicating concurrent calls.
// If a call is already in-flight for this key, Do blocks until it
// completes and returns the same result.
func (s *Singleflight[T]) Do(key string, fn func() (*T, error)) (*T, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}
