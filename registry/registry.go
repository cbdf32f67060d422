// Package registry persists brands across a durable store and a cache tier
// and maintains the secret index used to authenticate inbound brand calls.
//
// Reads go to the cache first and fall back to the durable store, repairing
// the cache on a durable hit. Writes go to the durable store first; a cache
// failure is logged and never fails the operation.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/assetsync/observability"
	"github.com/xraph/assetsync/signature"
	"github.com/xraph/assetsync/store"
)

// Registry owns brand persistence.
type Registry struct {
	durable    store.KV
	cache      store.KV
	logger     *slog.Logger
	metrics    *observability.Metrics
	timeout    time.Duration
	optimistic bool

	// saveMu serializes the version check and write when optimistic locking is on.
	saveMu sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithCache sets the cache tier. Without one every read hits the durable store.
func WithCache(cache store.KV) Option {
	return func(r *Registry) { r.cache = cache }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics records cache lookups.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithStoreTimeout bounds every store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithOptimisticLocking makes Save reject a brand whose version is stale.
func WithOptimisticLocking(enabled bool) Option {
	return func(r *Registry) { r.optimistic = enabled }
}

// New creates a registry over durable.
func New(durable store.KV, opts ...Option) (*Registry, error) {
	if durable == nil {
		return nil, ErrNoDurableStore
	}
	r := &Registry{durable: durable}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// Get returns the brand with brandID, or ErrBrandNotFound.
func (r *Registry) Get(ctx context.Context, brandID string) (*Brand, error) {
	key := BrandKey(brandID)

	var rec brandRecord
	found, err := r.read(ctx, key, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrBrandNotFound, brandID)
	}

	return fromRecord(rec), nil
}

// Save persists b and keeps the secret index in step. The returned brand
// carries the new version and timestamps.
func (r *Registry) Save(ctx context.Context, b *Brand) (*Brand, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if r.optimistic {
		r.saveMu.Lock()
		defer r.saveMu.Unlock()
	}

	key := BrandKey(b.ID)

	var prev *Brand
	raw, err := r.durableGet(ctx, key)
	switch {
	case err == nil:
		var rec brandRecord
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr != nil {
			r.logger.WarnContext(ctx, "registry: overwriting malformed brand record",
				"brand_id", b.ID, "error", jsonErr)
		} else {
			prev = fromRecord(rec)
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, err
	}

	if r.optimistic && prev != nil && prev.Version != b.Version {
		return nil, fmt.Errorf("%w: %s: have version %d, stored %d",
			ErrVersionConflict, b.ID, b.Version, prev.Version)
	}

	out := b.Clone()
	if prev != nil {
		out.Version = prev.Version + 1
		if out.CreatedAt.IsZero() {
			out.CreatedAt = prev.CreatedAt
		}
	} else {
		out.Version = b.Version + 1
	}
	out.Touch()

	value, err := json.Marshal(toRecord(out))
	if err != nil {
		return nil, fmt.Errorf("registry: encode brand %s: %w", b.ID, err)
	}

	if err := r.durablePut(ctx, key, value); err != nil {
		return nil, err
	}
	r.cachePut(ctx, key, value)

	if prev != nil && prev.Secret != "" && prev.Secret != out.Secret {
		r.deleteBoth(ctx, SecretIndexKey(prev.Secret))
	}
	if out.Secret != "" {
		idx, _ := json.Marshal(secretIndexRecord{BrandID: out.ID})
		if err := r.durablePut(ctx, SecretIndexKey(out.Secret), idx); err != nil {
			return nil, err
		}
		r.cachePut(ctx, SecretIndexKey(out.Secret), idx)
	}

	return out, nil
}

// Delete removes the brand and its secret index entry from both tiers. A
// brand that is already absent is not an error.
func (r *Registry) Delete(ctx context.Context, brandID string) error {
	b, err := r.Get(ctx, brandID)
	switch {
	case err == nil:
		if b.Secret != "" {
			r.deleteBoth(ctx, SecretIndexKey(b.Secret))
		}
	case errors.Is(err, ErrBrandNotFound):
		r.logger.DebugContext(ctx, "registry: delete of unknown brand, skipping index cleanup",
			"brand_id", brandID)
	default:
		r.logger.WarnContext(ctx, "registry: could not resolve brand before delete, skipping index cleanup",
			"brand_id", brandID, "error", err)
	}

	key := BrandKey(brandID)
	r.cacheDelete(ctx, key)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.durable.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStoreUnavailable, key, err)
	}
	return nil
}

// GetBySecret resolves a brand through the secret index. A stale index entry
// whose brand no longer holds the secret reads as ErrBrandNotFound.
func (r *Registry) GetBySecret(ctx context.Context, secret string) (*Brand, error) {
	if secret == "" {
		return nil, ErrBrandNotFound
	}

	var idx secretIndexRecord
	found, err := r.read(ctx, SecretIndexKey(secret), &idx)
	if err != nil {
		return nil, err
	}
	if !found || idx.BrandID == "" {
		return nil, ErrBrandNotFound
	}

	b, err := r.Get(ctx, idx.BrandID)
	if err != nil {
		return nil, err
	}

	if !signature.Equal(secret, b.Secret) {
		r.logger.DebugContext(ctx, "registry: stale secret index entry", "brand_id", b.ID)
		return nil, ErrBrandNotFound
	}

	return b, nil
}

// List returns every brand in the durable store, ordered by id. Malformed
// records are logged and skipped; cache entries missing for listed brands are
// repaired.
func (r *Registry) List(ctx context.Context) ([]*Brand, error) {
	lctx, cancel := r.withTimeout(ctx)
	entries, err := r.durable.List(lctx, BrandKeyPrefix)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: list brands: %w", ErrStoreUnavailable, err)
	}

	brands := make([]*Brand, 0, len(entries))
	for _, e := range entries {
		var rec brandRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			r.logger.WarnContext(ctx, "registry: skipping malformed brand record",
				"key", e.Key, "error", err)
			continue
		}
		brands = append(brands, fromRecord(rec))

		if r.cache != nil {
			if _, err := r.cacheGet(ctx, e.Key); errors.Is(err, store.ErrNotFound) {
				r.cachePut(ctx, e.Key, e.Value)
			}
		}
	}

	return brands, nil
}

// read looks key up in the cache, then the durable store, decoding into v.
func (r *Registry) read(ctx context.Context, key string, v any) (bool, error) {
	if r.cache != nil {
		raw, err := r.cacheGet(ctx, key)
		switch {
		case err == nil:
			jsonErr := json.Unmarshal(raw, v)
			if jsonErr == nil {
				r.metrics.RecordCacheLookup("hit")
				return true, nil
			}
			r.logger.WarnContext(ctx, "registry: malformed cache entry", "key", key, "error", jsonErr)
			r.metrics.RecordCacheLookup("error")
		case errors.Is(err, store.ErrNotFound):
			r.metrics.RecordCacheLookup("miss")
		default:
			r.logger.WarnContext(ctx, "registry: cache read failed", "key", key, "error", err)
			r.metrics.RecordCacheLookup("error")
		}
	}

	raw, err := r.durableGet(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("registry: decode %s: %w", key, err)
	}

	r.cachePut(ctx, key, raw)
	return true, nil
}

func (r *Registry) durableGet(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	raw, err := r.durable.Get(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: get %s: %w", ErrStoreUnavailable, key, err)
	}
	return raw, err
}

func (r *Registry) durablePut(ctx context.Context, key string, value []byte) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.durable.Put(ctx, key, value); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (r *Registry) cacheGet(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.cache.Get(ctx, key)
}

func (r *Registry) cachePut(ctx context.Context, key string, value []byte) {
	if r.cache == nil {
		return
	}
	cctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.cache.Put(cctx, key, value); err != nil {
		r.logger.WarnContext(ctx, "registry: cache write failed", "key", key, "error", err)
	}
}

func (r *Registry) cacheDelete(ctx context.Context, key string) {
	if r.cache == nil {
		return
	}
	cctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.cache.Delete(cctx, key); err != nil {
		r.logger.WarnContext(ctx, "registry: cache delete failed", "key", key, "error", err)
	}
}

// deleteBoth removes key from both tiers, logging failures.
func (r *Registry) deleteBoth(ctx context.Context, key string) {
	r.cacheDelete(ctx, key)

	dctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.durable.Delete(dctx, key); err != nil {
		r.logger.WarnContext(ctx, "registry: durable delete failed", "key", key, "error", err)
	}
}

func (r *Registry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}
