package es

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/codewandler/cart-go/internal/reflector"
)

// EventRegistry maps event type tags to constructors so persisted
// envelopes can be decoded. Decoding an unregistered type fails with
// ErrUnknownEventType - the registry is the closed set of events the
// deployed code understands.
type EventRegistry struct {
	mu   sync.RWMutex
	news map[string]func() any
}

func NewRegistry() *EventRegistry {
	return &EventRegistry{news: map[string]func() any{}}
}

func (r *EventRegistry) Register(eventType string, ctor func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.news[eventType] = ctor
}

func (r *EventRegistry) Decode(env Envelope) (any, error) {
	r.mu.RLock()
	ctor, ok := r.news[env.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, env.Type)
	}
	ev := ctor()
	if env.Data != nil {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

type Registrar interface {
	Register(eventType string, ctor func() any)
}

// Event returns a reflection-free constructor for an event of type T.
// Each call to the returned function constructs a fresh *T.
func Event[T any]() func() any { return func() any { return new(T) } }

// RegisterEvents registers event constructors. Each constructor is
// called once to derive the event's type tag; future decodes produce a
// fresh instance per call.
func RegisterEvents(r Registrar, ctors ...func() any) {
	for _, ctor := range ctors {
		sample := ctor()
		r.Register(EventTypeOf(sample), ctor)
	}
}

// EventTypeOf derives the type tag of an event. Events that implement
// EventType() string choose their own wire-stable tag; everything else
// falls back to the reflected type name.
func EventTypeOf(ev any) string {
	if t, ok := ev.(interface{ EventType() string }); ok {
		return t.EventType()
	}
	return reflector.NameOf(ev)
}
