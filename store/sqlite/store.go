// Package sqlite provides a durable store.Store on SQLite via the Grove ORM,
// suited to single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/assetsync/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required table using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("assetsync/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("assetsync/sqlite: migration failed: %w", err)
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

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	m := new(kvModel)
	err := s.sdb.NewSelect(m).
		Where(keyWhere, key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("assetsync/sqlite: get %s: %w", key, err)
	}
	return []byte(m.Value), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC()
	m := &kvModel{
		Key:       key,
		Value:     string(value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict(upsertOnKey).
		Set(upsertValue).
		Set(upsertUpdated).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assetsync/sqlite: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.sdb.NewDelete((*kvModel)(nil)).
		Where(keyWhere, key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assetsync/sqlite: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.Entry, error) {
	var models []kvModel
	err := s.sdb.NewSelect(&models).
		Where(prefixWhere, prefixPattern(prefix)).
		OrderExpr("entry_key ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("assetsync/sqlite: list %s: %w", prefix, err)
	}

	result := make([]store.Entry, len(models))
	for i := range models {
		result[i] = store.Entry{Key: models[i].Key, Value: []byte(models[i].Value)}
	}
	return result, nil
}
