package es_test

import (
	"fmt"
	"time"

	"github.com/codewandler/cart-go/core/es"
)

// Minimal test domain: a counter whose state is folded from
// increment/reset events.
type (
	counter struct {
		Value     int
		NumEvents int
	}

	incremented struct {
		By int `json:"by"`
	}

	reset struct{}
)

func (incremented) EventType() string { return "counter-incremented" }
func (reset) EventType() string       { return "counter-reset" }

func applyCounter(c counter, event any) (counter, error) {
	switch e := event.(type) {
	case *incremented:
		c.Value += e.By
		c.NumEvents++
		return c, nil
	case *reset:
		c.Value = 0
		c.NumEvents++
		return c, nil
	}
	return c, fmt.Errorf("%w: %T", es.ErrUnknownEventType, event)
}

func counterRegistry() *es.EventRegistry {
	r := es.NewRegistry()
	es.RegisterEvents(r, es.Event[incremented](), es.Event[reset]())
	return r
}

// envelopesFor marshals events into store-shaped envelopes with
// revisions assigned in order.
func envelopesFor(streamID string, events ...any) []es.Envelope {
	out := make([]es.Envelope, 0, len(events))
	for i, ev := range events {
		out = append(out, es.Envelope{
			ID:         fmt.Sprintf("ev-%d", i),
			StreamType: "counter",
			StreamID:   streamID,
			Type:       es.EventTypeOf(ev),
			Revision:   es.Revision(i),
			OccurredAt: time.Now(),
			Data:       mustJSON(ev),
		})
	}
	return out
}
