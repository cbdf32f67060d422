package assetsync

import (
	"log/slog"
	"time"

	"github.com/xraph/assetsync/asset"
	"github.com/xraph/assetsync/bus"
	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/event"
	"github.com/xraph/assetsync/observability"
	"github.com/xraph/assetsync/store"
)

// Option configures a Syncer.
type Option func(*Syncer) error

// WithStore sets the durable store. Brands, their secret index and the DLQ
// live here.
func WithStore(s store.KV) Option {
	return func(sy *Syncer) error {
		sy.durable = s
		return nil
	}
}

// WithCache sets the cache tier in front of the durable store.
func WithCache(s store.KV) Option {
	return func(sy *Syncer) error {
		sy.cache = s
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sy *Syncer) error {
		sy.logger = logger
		return nil
	}
}

// WithPublisher sets the internal event bus publisher.
func WithPublisher(p bus.Publisher) Option {
	return func(sy *Syncer) error {
		sy.publisher = p
		return nil
	}
}

// WithAssetFetcher sets how asset metadata is retrieved for notifications
// that do not carry it.
func WithAssetFetcher(f asset.Fetcher) Option {
	return func(sy *Syncer) error {
		sy.assets = f
		return nil
	}
}

// WithSender replaces the brand HTTP sender.
func WithSender(s *delivery.Sender) Option {
	return func(sy *Syncer) error {
		sy.sender = s
		return nil
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(sy *Syncer) error {
		sy.metrics = m
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer wrapper.
func WithTracer(t *observability.Tracer) Option {
	return func(sy *Syncer) error {
		sy.tracer = t
		return nil
	}
}

// WithDefinitions registers additional event definitions.
func WithDefinitions(defs ...catalog.Definition) Option {
	return func(sy *Syncer) error {
		sy.definitions = append(sy.definitions, defs...)
		return nil
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(sy *Syncer) error {
		sy.config = cfg
		return nil
	}
}

// WithConcurrency bounds per-notification fan-out.
func WithConcurrency(n int) Option {
	return func(sy *Syncer) error {
		sy.config.Concurrency = n
		return nil
	}
}

// WithRequestTimeout sets the HTTP timeout per delivery attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(sy *Syncer) error {
		sy.config.RequestTimeout = d
		return nil
	}
}

// WithPublishTimeout bounds each bus publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(sy *Syncer) error {
		sy.config.PublishTimeout = d
		return nil
	}
}

// WithStoreTimeout bounds each registry and DLQ store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(sy *Syncer) error {
		sy.config.StoreTimeout = d
		return nil
	}
}

// WithMaxAttempts sets the in-request attempts per brand delivery.
func WithMaxAttempts(n int) Option {
	return func(sy *Syncer) error {
		sy.config.MaxAttempts = n
		return nil
	}
}

// WithRetrySchedule sets the backoff between attempts.
func WithRetrySchedule(schedule []time.Duration) Option {
	return func(sy *Syncer) error {
		sy.config.RetrySchedule = schedule
		return nil
	}
}

// WithOptimisticLocking rejects brand saves with a stale version.
func WithOptimisticLocking(enabled bool) Option {
	return func(sy *Syncer) error {
		sy.config.OptimisticLocking = enabled
		return nil
	}
}

// WithHighPriorityThreshold sets the rule priority that stops evaluation.
func WithHighPriorityThreshold(n int) Option {
	return func(sy *Syncer) error {
		sy.config.HighPriorityThreshold = n
		return nil
	}
}

// WithRuntime sets the default runtime context.
func WithRuntime(rt event.Runtime) Option {
	return func(sy *Syncer) error {
		sy.config.Runtime = rt
		return nil
	}
}
