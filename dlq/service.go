// Package dlq records brand deliveries that did not succeed so they can be
// inspected, replayed or purged.
//
// Entries live in the durable store under "dlq:<id>". DLQ ids are
// time-ordered, so a prefix listing returns entries oldest first.
package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/id"
	"github.com/xraph/assetsync/internal/entity"
	"github.com/xraph/assetsync/observability"
	"github.com/xraph/assetsync/store"
)

// KeyPrefix namespaces DLQ entries in the store.
const KeyPrefix = "dlq:"

// ErrNotFound is returned for an unknown DLQ id.
var ErrNotFound = errors.New("dlq: entry not found")

// Replayer redelivers a recorded entry.
type Replayer interface {
	Replay(ctx context.Context, e *Entry) (delivery.Result, error)
}

// Service manages the dead letter queue.
type Service struct {
	store   store.KV
	logger  *slog.Logger
	metrics *observability.Metrics
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics keeps the DLQ size gauge current.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStoreTimeout bounds every store call. Zero leaves the caller's
// deadline in charge.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a new DLQ service.
func NewService(kv store.KV, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		store:  kv,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

var _ delivery.FailureRecorder = (*Service)(nil)

// RecordFailure creates a DLQ entry from a failed delivery.
func (svc *Service) RecordFailure(ctx context.Context, f delivery.Failure) error {
	entry := &Entry{
		Entity:     entity.New(),
		ID:         id.NewDLQID(),
		BrandID:    f.BrandID,
		EventID:    f.EventID,
		EventType:  f.EventType,
		URL:        f.URL,
		Envelope:   json.RawMessage(f.Envelope),
		Outcome:    string(f.Outcome),
		Error:      f.Error,
		StatusCode: f.StatusCode,
		Response:   f.Response,
		Attempts:   f.Attempts,
		FailedAt:   svc.now(),
	}

	if err := svc.put(ctx, entry); err != nil {
		return err
	}
	svc.metrics.DLQAdded()
	return nil
}

// Get returns a DLQ entry by ID.
func (svc *Service) Get(ctx context.Context, dlqID id.ID) (*Entry, error) {
	gctx, cancel := svc.withTimeout(ctx)
	raw, err := svc.store.Get(gctx, key(dlqID))
	cancel()
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dlqID)
	}
	if err != nil {
		return nil, fmt.Errorf("dlq: get %s: %w", dlqID, err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("dlq: decode %s: %w", dlqID, err)
	}
	return &e, nil
}

// List returns entries matching opts, oldest first. Malformed entries are
// logged and skipped.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	all, err := svc.scan(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Entry
	skipped := 0
	for _, e := range all {
		if !opts.match(e) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of entries not yet replayed.
func (svc *Service) Count(ctx context.Context) (int64, error) {
	all, err := svc.scan(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, e := range all {
		if e.ReplayedAt == nil {
			n++
		}
	}
	return n, nil
}

// Replay redelivers one entry through r. On success the entry is marked
// replayed; on failure its error and attempt count are updated.
func (svc *Service) Replay(ctx context.Context, dlqID id.ID, r Replayer) (*Entry, error) {
	e, err := svc.Get(ctx, dlqID)
	if err != nil {
		return nil, err
	}

	wasPending := e.ReplayedAt == nil
	res, replayErr := r.Replay(ctx, e)
	e.Attempts++
	e.Touch()

	if replayErr == nil {
		now := svc.now()
		e.ReplayedAt = &now
		if wasPending {
			svc.metrics.DLQRemoved(1)
		}
		svc.logger.InfoContext(ctx, "dlq entry replayed", "dlq_id", e.ID, "brand_id", e.BrandID)
	} else {
		e.Error = replayErr.Error()
		if res.StatusCode != 0 || res.Error != "" {
			e.Outcome = string(delivery.Classify(res))
			e.StatusCode = res.StatusCode
			e.Response = res.Response
		}
		svc.logger.WarnContext(ctx, "dlq replay failed", "dlq_id", e.ID, "brand_id", e.BrandID, "error", replayErr)
	}

	if err := svc.put(ctx, e); err != nil {
		return nil, err
	}
	return e, replayErr
}

// Purge removes entries that failed before the given time and returns how
// many were removed.
func (svc *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	all, err := svc.scan(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	pending := 0
	for _, e := range all {
		if !e.FailedAt.Before(before) {
			continue
		}
		dctx, cancel := svc.withTimeout(ctx)
		err := svc.store.Delete(dctx, key(e.ID))
		cancel()
		if err != nil {
			return n, fmt.Errorf("dlq: delete %s: %w", e.ID, err)
		}
		n++
		if e.ReplayedAt == nil {
			pending++
		}
	}
	svc.metrics.DLQRemoved(pending)
	return n, nil
}

func (svc *Service) scan(ctx context.Context) ([]*Entry, error) {
	lctx, cancel := svc.withTimeout(ctx)
	entries, err := svc.store.List(lctx, KeyPrefix)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("dlq: list: %w", err)
	}

	out := make([]*Entry, 0, len(entries))
	for _, kv := range entries {
		var e Entry
		if err := json.Unmarshal(kv.Value, &e); err != nil {
			svc.logger.WarnContext(ctx, "dlq: skipping malformed entry", "key", kv.Key, "error", err)
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}

func (svc *Service) put(ctx context.Context, e *Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("dlq: encode %s: %w", e.ID, err)
	}
	pctx, cancel := svc.withTimeout(ctx)
	defer cancel()
	if err := svc.store.Put(pctx, key(e.ID), raw); err != nil {
		return fmt.Errorf("dlq: put %s: %w", e.ID, err)
	}
	return nil
}

func (svc *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if svc.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, svc.timeout)
}

func key(dlqID id.ID) string { return KeyPrefix + dlqID.String() }
