package kv

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests and single-process setups.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]memEntry

	// now is swappable for expiry tests
	now func() time.Time
}

type memEntry struct {
	entry     Entry
	expiresAt time.Time // zero means no expiry
}

func NewMemStore() *MemStore {
	return &MemStore{
		data: map[string]memEntry{},
		now:  time.Now,
	}
}

func (m *MemStore) Put(_ context.Context, key string, entry Entry, opts PutOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if opts.TTL > 0 {
		expiresAt = m.now().Add(opts.TTL)
	}
	m.data[key] = memEntry{entry: entry, expiresAt: expiresAt}
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		return Entry{}, ErrNotFound
	}
	return e.entry, nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var _ Store = (*MemStore)(nil)
