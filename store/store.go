// Package store defines the key-value contract shared by the durable and the
// cache tier.
//
// Brands, secret-index entries and DLQ records are stored as JSON values
// under string keys. Any backend that can get, put, delete and enumerate by
// prefix can serve either tier; the registry decides which tier is
// authoritative.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("store: key not found")

	// ErrClosed is returned when an operation is attempted after Close.
	ErrClosed = errors.New("store: closed")
)

// Entry is a single key/value pair returned by List.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the data-plane subset of Store used by the registry and the DLQ.
type KV interface {
	// Get returns the raw value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every entry whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Entry, error)
}

// Store is a KV with lifecycle management.
type Store interface {
	KV

	// Migrate prepares tables, collections or indexes. No-op where none are needed.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}
