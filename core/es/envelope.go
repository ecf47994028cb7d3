package es

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is what gets persisted in the event store. The payload is
// carried opaque; the Type tag selects the constructor used to decode
// it back into a domain event.
type Envelope struct {
	ID         string          `json:"id"`          // message ID, unique per event
	StreamType string          `json:"stream"`      // entity kind, e.g. "shopping_cart"
	StreamID   string          `json:"stream_id"`   // entity instance ID
	Type       string          `json:"type"`        // event type tag
	Revision   Revision        `json:"revision"`    // zero-based position in the stream, assigned by the store on append
	OccurredAt time.Time       `json:"occurred_at"` //
	Data       json.RawMessage `json:"data"`        //
}

func (e Envelope) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("envelope id is empty")
	}
	if e.StreamType == "" {
		return fmt.Errorf("envelope stream type is empty")
	}
	if e.StreamID == "" {
		return fmt.Errorf("envelope stream id is empty")
	}
	if e.Type == "" {
		return fmt.Errorf("envelope type is empty")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("envelope occurred at is zero")
	}
	return nil
}

// StreamKey derives the opaque store key for one entity instance.
func StreamKey(streamType, streamID string) string {
	return fmt.Sprintf("%s-%s", streamType, streamID)
}

// Decoder turns a persisted envelope back into a typed domain event.
type Decoder interface {
	Decode(e Envelope) (any, error)
}
