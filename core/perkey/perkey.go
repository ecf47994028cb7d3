// Package perkey provides a scheduler that serializes work per key
// while work for different keys proceeds in parallel.
//
// Typical use-case: commands against event-sourced entities, where
// serializing per entity ID avoids needless optimistic-concurrency
// conflicts between local callers. It reduces conflicts; it never
// replaces the store-side revision check, which remains the
// correctness mechanism against other writers.
package perkey

import (
	"context"
	"errors"
	"sync"
)

// ErrSchedulerClosed is returned when Do is called on a closed scheduler.
var ErrSchedulerClosed = errors.New("scheduler is closed")

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	queueSize int
}

// WithQueueSize sets the task queue size per key (default: 64).
func WithQueueSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// Scheduler runs tasks such that for any given key, tasks execute
// sequentially in submission order. Tasks for different keys can
// proceed in parallel.
type Scheduler[K comparable] struct {
	mu        sync.Mutex
	lanes     map[K]*lane
	closed    bool
	inflight  sync.WaitGroup
	queueSize int
}

type lane struct {
	tasks chan *task
}

type task struct {
	fn   func() error
	done chan error
}

// New creates a new Scheduler.
func New[K comparable](opts ...Option) *Scheduler[K] {
	cfg := &config{queueSize: 64}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Scheduler[K]{
		lanes:     make(map[K]*lane),
		queueSize: cfg.queueSize,
	}
}

// Do schedules fn to run for the given key and blocks until fn
// finishes, returning its error.
func (s *Scheduler[K]) Do(key K, fn func() error) error {
	return s.DoContext(context.Background(), key, fn)
}

// DoContext is like Do but respects context cancellation while waiting
// to enqueue or waiting for completion. A task that was already
// enqueued still executes even if the caller stops waiting for it.
func (s *Scheduler[K]) DoContext(ctx context.Context, key K, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.inflight.Add(1)
	ln := s.laneLocked(key)
	s.mu.Unlock()

	t := &task{fn: fn, done: make(chan error, 1)}

	select {
	case ln.tasks <- t:
	case <-ctx.Done():
		s.inflight.Done()
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		s.inflight.Done()
		return err
	case <-ctx.Done():
		s.inflight.Done()
		return ctx.Err()
	}
}

// Close stops accepting new tasks and shuts down all lanes. Tasks
// already queued still run.
func (s *Scheduler[K]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	// Wait for in-flight Do calls to finish enqueueing so we never
	// send on a closed channel.
	s.inflight.Wait()

	s.mu.Lock()
	for _, ln := range s.lanes {
		close(ln.tasks)
	}
	s.lanes = nil
	s.mu.Unlock()
}

func (s *Scheduler[K]) laneLocked(key K) *lane {
	ln, ok := s.lanes[key]
	if ok {
		return ln
	}
	ln = &lane{tasks: make(chan *task, s.queueSize)}
	s.lanes[key] = ln
	go func() {
		for t := range ln.tasks {
			t.done <- t.fn()
		}
	}()
	return ln
}
