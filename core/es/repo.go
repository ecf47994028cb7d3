package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IDGenerator generates unique IDs for event envelopes.
type IDGenerator func() string

// DefaultIDGenerator returns the default ID generator using nanoid.
func DefaultIDGenerator() IDGenerator {
	return func() string { return gonanoid.Must() }
}

type (
	valueOption[T any] struct{ v T }

	repoOpts struct {
		idGenerator IDGenerator
		now         func() time.Time
		metrics     ESMetrics
	}

	RepositoryOption      interface{ applyToRepository(*repoOpts) }
	RepoIDGeneratorOption valueOption[IDGenerator]
	RepoClockOption       valueOption[func() time.Time]
	ESMetricsOption       valueOption[ESMetrics]
)

// WithIDGenerator sets a custom ID generator for event envelope IDs.
func WithIDGenerator(gen IDGenerator) RepoIDGeneratorOption {
	return RepoIDGeneratorOption{v: gen}
}

// WithClock sets the clock used to stamp envelopes. Timestamps are
// assigned at append time only; the fold itself never reads a clock.
func WithClock(now func() time.Time) RepoClockOption { return RepoClockOption{v: now} }

// WithMetrics sets the metrics implementation.
func WithMetrics(m ESMetrics) ESMetricsOption { return ESMetricsOption{v: m} }

func (o RepoIDGeneratorOption) applyToRepository(opts *repoOpts) { opts.idGenerator = o.v }
func (o RepoClockOption) applyToRepository(opts *repoOpts)       { opts.now = o.v }
func (o ESMetricsOption) applyToRepository(opts *repoOpts)       { opts.metrics = o.v }

func newRepoOpts(opts ...RepositoryOption) repoOpts {
	options := repoOpts{
		idGenerator: DefaultIDGenerator(),
		now:         time.Now,
		metrics:     NopESMetrics(),
	}
	for _, opt := range opts {
		opt.applyToRepository(&options)
	}
	return options
}

// DecideFunc validates a command against the folded snapshot and emits
// the resulting events. A business-rule violation is an error return;
// no event may be produced in that case.
type DecideFunc[S any] func(state S) ([]any, error)

// Repository is the optimistic-concurrency gateway for one entity kind.
// It reads a stream, folds it into current state plus current revision,
// and writes new events conditioned on an expected revision. It owns no
// state across calls: freshness is enforced by always re-folding from
// the store, never by caching snapshots.
type Repository[S any] struct {
	log        *slog.Logger
	store      EventStore
	registry   *EventRegistry
	streamType string
	apply      ApplyFunc[S]
	idGen      IDGenerator
	now        func() time.Time
	metrics    ESMetrics
}

func NewRepository[S any](
	log *slog.Logger,
	store EventStore,
	registry *EventRegistry,
	streamType string,
	apply ApplyFunc[S],
	opts ...RepositoryOption,
) *Repository[S] {
	if log == nil {
		log = slog.Default()
	}
	options := newRepoOpts(opts...)
	return &Repository[S]{
		log:        log.With(slog.String("stream_type", streamType)),
		store:      store,
		registry:   registry,
		streamType: streamType,
		apply:      apply,
		idGen:      options.idGenerator,
		now:        options.now,
		metrics:    options.metrics,
	}
}

// Read folds the full stream into current state and revision. An absent
// stream fails with ErrStreamNotFound: the entity was never created,
// which is not the same as an entity holding no data.
func (r *Repository[S]) Read(ctx context.Context, id string) (state S, rev Revision, err error) {
	if id == "" {
		return state, 0, errors.New("stream id is empty")
	}

	t := r.metrics.StoreReadDuration(r.streamType)
	envelopes, err := r.store.Read(ctx, r.streamType, id)
	t.ObserveDuration()
	if err != nil {
		return state, 0, err
	}

	return Fold(envelopes, r.registry, r.apply)
}

// Append persists events under the expected revision and returns the
// new stream revision. An empty batch is a no-op that never contacts
// the store.
func (r *Repository[S]) Append(
	ctx context.Context,
	id string,
	expected ExpectedRevision,
	events ...any,
) (Revision, error) {
	if len(events) == 0 {
		return 0, ErrStoreNoEvents
	}

	envelopes := make([]Envelope, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return 0, err
		}
		envelopes = append(envelopes, Envelope{
			ID:         r.idGen(),
			StreamType: r.streamType,
			StreamID:   id,
			Type:       EventTypeOf(ev),
			OccurredAt: r.now(),
			Data:       data,
		})
	}

	t := r.metrics.StoreAppendDuration(r.streamType)
	res, err := r.store.Append(ctx, r.streamType, id, expected, envelopes)
	t.ObserveDuration()
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			r.metrics.ConcurrencyConflict(r.streamType)
		}
		return 0, fmt.Errorf("failed to append stream=%s id=%s: %w", r.streamType, id, err)
	}
	if res == nil {
		return 0, errors.New("append returned nil result")
	}

	r.metrics.EventsAppended(r.streamType, len(envelopes))
	r.log.Debug(
		"appended",
		slog.String("id", id),
		slog.Int("num_events", len(envelopes)),
		res.NewRevision.SlogAttr(),
	)

	return res.NewRevision, nil
}

// Handle runs one command: read -> fold -> decide -> conditional
// append. The flow is not atomic end-to-end; the expectation check at
// append time is the correctness mechanism. The caller decides whether
// a conflict warrants a re-read and retry - the repository never
// retries on its own, because retrying changes command semantics.
//
// With a NoStream expectation an absent stream is legitimate: decide
// runs against the zero snapshot, so the entity's own creation event
// can establish state from nothing. With any other expectation an
// absent stream fails with ErrStreamNotFound.
func (r *Repository[S]) Handle(
	ctx context.Context,
	id string,
	expected ExpectedRevision,
	decide DecideFunc[S],
) (state S, rev Revision, err error) {
	defer r.metrics.HandleDuration(r.streamType).ObserveDuration()

	state, rev, err = r.Read(ctx, id)
	exists := true
	if err != nil {
		if _, creating := expected.(noStream); creating && errors.Is(err, ErrStreamNotFound) {
			exists = false
		} else {
			return state, 0, err
		}
	}

	events, err := decide(state)
	if err != nil {
		r.metrics.CommandRejected(r.streamType)
		return state, rev, err
	}
	if len(events) == 0 {
		if !exists {
			return state, 0, ErrStreamNotFound
		}
		return state, rev, nil
	}

	newRev, err := r.Append(ctx, id, expected, events...)
	if err != nil {
		return state, rev, err
	}

	for _, ev := range events {
		if state, err = r.apply(state, ev); err != nil {
			return state, newRev, err
		}
	}
	return state, newRev, nil
}
