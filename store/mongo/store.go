// Package mongo provides a durable store.Store on MongoDB via the Grove ORM.
// Each entry is one document keyed by its store key.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/assetsync/store"
)

const colKV = "assetsync_kv"

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the secondary indexes of the kv collection.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.mdb.Collection(colKV).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("assetsync/mongo: migrate %s indexes: %w", colKV, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var m kvModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("assetsync/mongo: get %s: %w", key, err)
	}

	return []byte(m.Value), nil
}

// Put upserts the document for key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC()
	m := &kvModel{Key: key, Value: string(value), CreatedAt: now, UpdatedAt: now}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": key}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"value":      m.Value,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"created_at": now,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assetsync/mongo: put %s: %w", key, err)
	}

	return nil
}

// Delete removes the document for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.mdb.NewDelete((*kvModel)(nil)).
		Filter(bson.M{"_id": key}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assetsync/mongo: delete %s: %w", key, err)
	}

	return nil
}

// List returns every document whose key starts with prefix, ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]store.Entry, error) {
	var models []kvModel

	err := s.mdb.NewFind(&models).
		Filter(prefixFilter(prefix)).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("assetsync/mongo: list %s: %w", prefix, err)
	}

	result := make([]store.Entry, 0, len(models))
	for i := range models {
		result = append(result, store.Entry{Key: models[i].Key, Value: []byte(models[i].Value)})
	}

	return result, nil
}

// prefixFilter matches keys beginning with the literal prefix. An anchored
// regex on _id can use the primary index.
func prefixFilter(prefix string) bson.M {
	if prefix == "" {
		return bson.M{}
	}
	return bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
