package nats

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/cart-go/ports/kv"
)

type KVConfig struct {
	Connect Connector
	Bucket  string
	// TTL applies to the whole bucket. JetStream KV has no per-key
	// TTL, so PutOptions.TTL is not honored here.
	TTL      time.Duration
	MaxBytes int64
}

// KVStore implements the kv.Store port on a JetStream key-value
// bucket.
type KVStore struct {
	kv      jetstream.KeyValue
	closeNc closeFunc
}

func NewKVStore(cfg KVConfig) (*KVStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

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
		closeNatsCon()
		return nil, err
	}

	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = 1024 * 1024
	}

	bucket, err := js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket:   cfg.Bucket,
		Storage:  jetstream.FileStorage,
		TTL:      cfg.TTL,
		MaxBytes: maxBytes,
	})
	if err != nil {
		closeNatsCon()
		return nil, err
	}

	return &KVStore{kv: bucket, closeNc: closeNatsCon}, nil
}

func (s *KVStore) Close() error {
	s.closeNc()
	return nil
}

func (s *KVStore) Put(ctx context.Context, key string, entry kv.Entry, _ kv.PutOptions) error {
	_, err := s.kv.Put(ctx, key, entry.Data)
	return err
}

func (s *KVStore) Get(ctx context.Context, key string) (kv.Entry, error) {
	e, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return kv.Entry{}, kv.ErrNotFound
		}
		return kv.Entry{}, err
	}
	return kv.Entry{Data: e.Value()}, nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key)
}

var _ kv.Store = (*KVStore)(nil)
