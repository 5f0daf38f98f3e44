package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/drills/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "drills:records:"

// Store implements ports.RecordStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for saved records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// maxMergeRetries bounds optimistic retries when another writer touches
// the key during a Merge.
const maxMergeRetries = 16

// Save persists the records as JSON and indexes the key.
func (s *Store) Save(ctx context.Context, key string, records domain.Records) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	pipe := s.client.Pipeline()
	s.queueSave(ctx, pipe, key, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Merge folds records into the saved ones inside a WATCH/MULTI transaction,
// retrying when the key changes underneath.
func (s *Store) Merge(ctx context.Context, key string, records domain.Records) (domain.Records, error) {
	var merged domain.Records
	txf := func(tx *backend.Tx) error {
		merged = records
		val, err := tx.Get(ctx, s.key(key)).Result()
		switch {
		case errors.Is(err, backend.Nil):
		case err != nil:
			return err
		default:
			var saved domain.Records
			if err := json.Unmarshal([]byte(val), &saved); err != nil {
				return fmt.Errorf("failed to unmarshal records: %w", err)
			}
			merged = saved.Merge(records)
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to marshal records: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			s.queueSave(ctx, pipe, key, data)
			return nil
		})
		return err
	}

	for range maxMergeRetries {
		err := s.client.Watch(ctx, txf, s.key(key))
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Records{}, fmt.Errorf("failed to merge records: %w", err)
		}
		return merged, nil
	}
	return domain.Records{}, fmt.Errorf("failed to merge records: %w", backend.TxFailedErr)
}

func (s *Store) queueSave(ctx context.Context, pipe backend.Pipeliner, key string, data []byte) {
	pipe.Set(ctx, s.key(key), data, s.ttl)

	// Index score is the expiry time so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: key,
	})
}

// Load retrieves the records saved under key.
func (s *Store) Load(ctx context.Context, key string) (domain.Records, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Records{}, domain.ErrSessionNotFound
		}
		return domain.Records{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var records domain.Records
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return domain.Records{}, fmt.Errorf("failed to unmarshal records: %w", err)
	}
	return records, nil
}

// Delete removes the records and their index entry.
func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), key)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the saved keys, pruning expired ones from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired records: %w", err)
	}

	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return keys, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
