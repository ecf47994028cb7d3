package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/cart-go/core/es"
)

const (
	defaultSubjectPrefix = "cart.es"

	// maxAppendRetries bounds the re-read loop for unconditional
	// appends racing other writers on the same subject.
	maxAppendRetries = 5
)

type EventStoreConfig struct {
	Connect       Connector    // Connect creates the underlying NATS connection. If nil, ConnectDefault() is used.
	Log           *slog.Logger // Log for diagnostics (optional)
	SubjectPrefix string       // SubjectPrefix prefixes every event subject
	StreamName    string
}

// EventStore persists envelopes in a JetStream stream, one subject per
// entity stream. Optimistic concurrency is enforced server-side via the
// expected-last-sequence-per-subject publish guard, so the expectation
// check and the write are atomic even across processes.
type EventStore struct {
	nc            *natsgo.Conn
	closeNc       closeFunc
	js            jetstream.JetStream
	stream        jetstream.Stream
	log           *slog.Logger
	subjectPrefix string
	streamName    string
}

func NewEventStore(cfg EventStoreConfig) (*EventStore, error) {
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	nc, closeNatsCon, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	streamName := strings.ToUpper(cfg.StreamName)
	if streamName == "" {
		streamName = "CART_ES"
	}

	subjectPrefix := cfg.SubjectPrefix
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}

	log = log.With(
		slog.String("store", "nats_js"),
		slog.String("stream", streamName),
		slog.String("subjectPrefix", subjectPrefix),
	)

	log.Debug("ensuring stream")

	stream, streamInfo, err := ensureStream(js, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
		Storage:  jetstream.FileStorage,
		FirstSeq: 1,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("ensured", slog.Any("stream", streamInfo))

	return &EventStore{
		nc:            nc,
		closeNc:       closeNatsCon,
		js:            js,
		log:           log,
		stream:        stream,
		subjectPrefix: subjectPrefix,
		streamName:    streamName,
	}, nil
}

func (e *EventStore) Close() error {
	e.js.CleanupPublisher()
	e.closeNc()
	e.log.Debug("closed event store")
	return nil
}

func (e *EventStore) Read(ctx context.Context, streamType, streamID string) (loaded []es.Envelope, err error) {
	if streamType == "" {
		return nil, errors.New("stream type is empty")
	}
	if streamID == "" {
		return nil, errors.New("stream id is empty")
	}

	var (
		startAt = time.Now()
		subj    = e.subjectFor(streamType, streamID)
	)

	head, err := e.head(ctx, subj)
	if err != nil {
		return nil, err
	}
	if !head.exists {
		return nil, fmt.Errorf("%w: %s", es.ErrStreamNotFound, es.StreamKey(streamType, streamID))
	}

	cc, err := e.stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		DeliverPolicy:  jetstream.DeliverAllPolicy,
		FilterSubjects: []string{subj},
	})
	if err != nil {
		return nil, err
	}

	loaded, err = e.consumeUntil(ctx, cc, head.seq)
	if err != nil {
		return nil, err
	}

	e.log.Debug(
		"read stream",
		slog.String("subject", subj),
		slog.Int("num_events", len(loaded)),
		slog.Duration("duration", time.Since(startAt)),
	)
	return loaded, nil
}

// consumeUntil fetches envelopes until the message at endSeq is seen.
func (e *EventStore) consumeUntil(
	ctx context.Context,
	cc jetstream.Consumer,
	endSeq uint64,
) (loaded []es.Envelope, err error) {

	var mb jetstream.MessageBatch

outer:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mb, err = cc.FetchNoWait(100)
		if err != nil {
			return nil, err
		}
		if mb.Error() != nil {
			return nil, mb.Error()
		}

		empty := true

		for msg := range mb.Messages() {
			empty = false

			env, seq, decodeErr := decodeMsg(msg)
			if decodeErr != nil {
				return nil, fmt.Errorf("failed to decode message: %w", decodeErr)
			}
			loaded = append(loaded, *env)

			if seq >= endSeq {
				break outer
			}
		}

		if empty {
			break
		}
	}

	return loaded, nil
}

func (e *EventStore) Append(
	ctx context.Context,
	streamType string,
	streamID string,
	expected es.ExpectedRevision,
	events []es.Envelope,
) (*es.StoreAppendResult, error) {
	if len(events) == 0 {
		return nil, es.ErrStoreNoEvents
	}
	if streamType == "" {
		return nil, errors.New("stream type is empty")
	}
	if streamID == "" {
		return nil, errors.New("stream id is empty")
	}
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate event: %w", err)
		}
	}

	subj := e.subjectFor(streamType, streamID)

	// An unconditional append may lose the publish guard to a
	// concurrent writer without being wrong. Re-read and try again.
	for attempt := 0; ; attempt++ {
		res, err := e.tryAppend(ctx, subj, streamType, streamID, expected, events)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, es.ErrConcurrencyConflict) && expected == es.Any() && attempt < maxAppendRetries {
			continue
		}
		return nil, err
	}
}

func (e *EventStore) tryAppend(
	ctx context.Context,
	subj string,
	streamType string,
	streamID string,
	expected es.ExpectedRevision,
	events []es.Envelope,
) (*es.StoreAppendResult, error) {

	head, err := e.head(ctx, subj)
	if err != nil {
		return nil, err
	}

	if !expected.Matches(head.rev, head.exists) {
		return nil, fmt.Errorf("%w: stream %s at %s, expected %s",
			es.ErrConcurrencyConflict, es.StreamKey(streamType, streamID), head, expected)
	}

	var next es.Revision
	if head.exists {
		next = head.rev.Next()
	}

	// The first publish carries the guard against the observed head;
	// the rest chain on the preceding ack so no other writer can
	// interleave within the batch.
	lastSeq := head.seq
	for i, ev := range events {
		ev.Revision = next + es.Revision(i)

		msg := natsgo.NewMsg(subj)
		msg.Header.Set("x-event-type", ev.Type)
		msg.Header.Set("x-stream-type", ev.StreamType)
		msg.Header.Set("x-stream-id", ev.StreamID)
		msg.Data, err = json.Marshal(ev)
		if err != nil {
			return nil, err
		}

		ack, pubErr := e.js.PublishMsg(
			ctx,
			msg,
			jetstream.WithMsgID(ev.ID),
			jetstream.WithExpectLastSequencePerSubject(lastSeq),
		)
		if pubErr != nil {
			if isWrongLastSequence(pubErr) {
				return nil, fmt.Errorf("%w: stream %s lost append race",
					es.ErrConcurrencyConflict, es.StreamKey(streamType, streamID))
			}
			return nil, fmt.Errorf("failed to append to subject %s %s: %w", subj, ev.Type, pubErr)
		}
		lastSeq = ack.Sequence
	}

	newRev := next + es.Revision(len(events)-1)

	e.log.Debug(
		"append",
		slog.String("subject", subj),
		slog.Int("num_events", len(events)),
		newRev.SlogAttr(),
	)

	return &es.StoreAppendResult{NewRevision: newRev}, nil
}

// streamHead is the last persisted event of one subject.
type streamHead struct {
	exists bool
	rev    es.Revision
	seq    uint64 // JetStream stream sequence of the last message
}

func (h streamHead) String() string {
	if !h.exists {
		return "no-stream"
	}
	return fmt.Sprintf("revision %d", h.rev)
}

func (e *EventStore) head(ctx context.Context, subj string) (streamHead, error) {
	lm, err := e.stream.GetLastMsgForSubject(ctx, subj)
	if err != nil {
		if errors.Is(err, jetstream.ErrMsgNotFound) {
			return streamHead{}, nil
		}
		return streamHead{}, fmt.Errorf("failed to get last message for subject %q: %w", subj, err)
	}

	var env es.Envelope
	if err := json.Unmarshal(lm.Data, &env); err != nil {
		return streamHead{}, fmt.Errorf("failed to unmarshal last message for subject %q: %w", subj, err)
	}
	return streamHead{exists: true, rev: env.Revision, seq: lm.Sequence}, nil
}

func ensureStream(js jetstream.JetStream, cfg jetstream.StreamConfig) (s jetstream.Stream, si *jetstream.StreamInfo, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*natsgo.DefaultTimeout)
	defer cancel()

	s, err = js.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	si, err = s.Info(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, si, nil
}

func decodeMsg(msg jetstream.Msg) (*es.Envelope, uint64, error) {
	md, err := msg.Metadata()
	if err != nil {
		return nil, 0, err
	}

	env := &es.Envelope{}
	if err := json.Unmarshal(msg.Data(), env); err != nil {
		return nil, 0, err
	}
	return env, md.Sequence.Stream, nil
}

func isWrongLastSequence(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

func (e *EventStore) subjectFor(streamType, streamID string) string {
	return e.subjectPrefix + "." + streamType + "." + streamID
}

var _ es.EventStore = (*EventStore)(nil)
