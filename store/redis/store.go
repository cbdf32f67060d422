// Package redis provides a store.Store backed by Redis. It is normally used
// as the cache tier in front of a durable store, with an optional TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/grove/kv"
	"github.com/xraph/grove/kv/drivers/redisdriver"

	"github.com/xraph/assetsync/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

const scanCount = 200

// Store implements store.Store on a Redis client.
type Store struct {
	kv        *kv.Store
	rdb       goredis.UniversalClient
	namespace string
	ttl       time.Duration
}

// Option configures a Redis Store.
type Option func(*Store)

// WithNamespace prefixes every key written by the store.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

// WithTTL sets an expiry on every written key. Zero keeps keys forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// New creates a Redis store backed by a Grove KV store.
func New(kvStore *kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:        kvStore,
		rdb:       redisdriver.UnwrapClient(kvStore),
		namespace: defaultNamespace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromClient creates a Redis store on an existing go-redis client.
func NewFromClient(rdb goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		rdb:       rdb,
		namespace: defaultNamespace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate is a no-op for Redis (no schema migrations needed).
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.kv != nil {
		return s.kv.Ping(ctx)
	}
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.kv != nil {
		return s.kv.Close()
	}
	return s.rdb.Close()
}

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if s.kv != nil {
		raw, err = s.kv.GetRaw(ctx, s.key(key))
	} else {
		raw, err = s.rdb.Get(ctx, s.key(key)).Bytes()
	}
	if err != nil {
		if isNotFound(err) || isRedisNil(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("assetsync/redis: get %s: %w", key, err)
	}
	return raw, nil
}

// Put writes value under key. Writes with a TTL go to the client directly
// since the kv layer sets no expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	var err error
	if s.kv != nil && s.ttl <= 0 {
		err = s.kv.SetRaw(ctx, s.key(key), value)
	} else {
		err = s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
	}
	if err != nil {
		return fmt.Errorf("assetsync/redis: put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	var err error
	if s.kv != nil {
		err = s.kv.Delete(ctx, s.key(key))
		if isNotFound(err) {
			err = nil
		}
	} else {
		err = s.rdb.Del(ctx, s.key(key)).Err()
	}
	if err != nil {
		return fmt.Errorf("assetsync/redis: delete %s: %w", key, err)
	}
	return nil
}

// List scans for keys under prefix and loads their values. Keys that expire
// between the scan and the read are skipped.
func (s *Store) List(ctx context.Context, prefix string) ([]store.Entry, error) {
	pattern := s.key(escapeGlob(prefix)) + "*"

	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("assetsync/redis: scan %s: %w", prefix, err)
	}
	sort.Strings(keys)

	entries := make([]store.Entry, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimPrefix(k, s.namespace)
		raw, err := s.Get(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("assetsync/redis: list %s: %w", prefix, err)
		}
		entries = append(entries, store.Entry{Key: name, Value: raw})
	}
	return entries, nil
}

func (s *Store) key(k string) string {
	return s.namespace + k
}

// isNotFound checks for the grove kv not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

// isRedisNil checks if an error is a Redis nil (key not found).
func isRedisNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}
