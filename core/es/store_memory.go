package es

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// InMemoryStore is a simple, correct (optimistic) store for tests/dev.
// Appends against one stream are serialized under a single lock, so the
// expectation check and the write are atomic.
type InMemoryStore struct {
	mu      sync.Mutex
	log     *slog.Logger
	streams map[string][]Envelope
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		log:     slog.Default().With(slog.String("store", "memory")),
		streams: map[string][]Envelope{},
	}
}

func (s *InMemoryStore) Read(_ context.Context, streamType, streamID string) ([]Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, ok := s.streams[StreamKey(streamType, streamID)]
	if !ok {
		return nil, ErrStreamNotFound
	}

	out := make([]Envelope, len(events))
	copy(out, events)
	return out, nil
}

func (s *InMemoryStore) Append(
	_ context.Context,
	streamType string,
	streamID string,
	expected ExpectedRevision,
	events []Envelope,
) (*StoreAppendResult, error) {
	if len(events) == 0 {
		return nil, ErrStoreNoEvents
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		sk         = StreamKey(streamType, streamID)
		cur, found = s.streams[sk]
		curRev     Revision
	)
	if len(cur) > 0 {
		curRev = cur[len(cur)-1].Revision
	} else {
		found = false
	}

	if !expected.Matches(curRev, found) {
		return nil, fmt.Errorf("%w: stream %s at %s, expected %s",
			ErrConcurrencyConflict, sk, revisionLabel(curRev, found), expected)
	}

	next := Revision(len(cur))
	appended := make([]Envelope, 0, len(events))
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		e.Revision = next
		next++
		appended = append(appended, e)
	}

	s.streams[sk] = append(cur, appended...)
	newRev := appended[len(appended)-1].Revision

	s.log.Debug(
		"append",
		slog.String("stream", sk),
		slog.Int("num_events", len(appended)),
		newRev.SlogAttr(),
	)

	return &StoreAppendResult{NewRevision: newRev}, nil
}

func revisionLabel(rev Revision, exists bool) string {
	if !exists {
		return "no-stream"
	}
	return fmt.Sprintf("revision %d", rev)
}

var _ EventStore = (*InMemoryStore)(nil)
