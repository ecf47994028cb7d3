package cache

import (
	"container/list"
	"sync"
	"time"
)

type LRUOpts struct {
	Size int
}

type lruEntry struct {
	key       string
	val       any
	expiresAt time.Time // zero means no expiry
}

// LRU is an in-memory cache with least-recently-used eviction and
// optional per-entry TTL. Safe for concurrent use.
type LRU struct {
	mu    sync.Mutex
	size  int
	order *list.List
	items map[string]*list.Element
	now   func() time.Time
}

func NewLRU(opts LRUOpts) *LRU {
	if opts.Size <= 0 {
		opts.Size = 128
	}
	return &LRU{
		size:  opts.Size,
		order: list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}
}

func (l *LRU) Get(key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ele, ok := l.items[key]
	if !ok {
		return nil, false
	}
	ent := ele.Value.(*lruEntry)
	if !ent.expiresAt.IsZero() && l.now().After(ent.expiresAt) {
		l.removeLocked(ele)
		return nil, false
	}
	l.order.MoveToFront(ele)
	return ent.val, true
}

func (l *LRU) Put(key string, val any, opts ...PutOption) {
	options := PutOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var expiresAt time.Time
	if options.TTL > 0 {
		expiresAt = l.now().Add(options.TTL)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ele, ok := l.items[key]; ok {
		l.order.MoveToFront(ele)
		ent := ele.Value.(*lruEntry)
		ent.val = val
		ent.expiresAt = expiresAt
		return
	}

	ele := l.order.PushFront(&lruEntry{key: key, val: val, expiresAt: expiresAt})
	l.items[key] = ele
	if l.order.Len() > l.size {
		if last := l.order.Back(); last != nil {
			l.removeLocked(last)
		}
	}
}

func (l *LRU) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ele, ok := l.items[key]; ok {
		l.removeLocked(ele)
	}
}

func (l *LRU) removeLocked(ele *list.Element) {
	l.order.Remove(ele)
	delete(l.items, ele.Value.(*lruEntry).key)
}

var _ Cache = (*LRU)(nil)
