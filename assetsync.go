package assetsync

import (
	"context"
	"log/slog"

	"github.com/xraph/assetsync/asset"
	"github.com/xraph/assetsync/bus"
	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/dlq"
	"github.com/xraph/assetsync/event"
	"github.com/xraph/assetsync/observability"
	"github.com/xraph/assetsync/ratelimit"
	"github.com/xraph/assetsync/registry"
	"github.com/xraph/assetsync/routing"
	"github.com/xraph/assetsync/store"
)

// Syncer is the root object: it owns the wired services and exposes the
// sync, registration and inbound operations.
type Syncer struct {
	config  Config
	durable store.KV
	cache   store.KV
	logger  *slog.Logger

	registry  *registry.Registry
	brands    *registry.Service
	catalog   *catalog.Catalog
	validator *catalog.Validator
	builder   *event.Builder
	evaluator *routing.Evaluator
	engine    *delivery.Engine
	dlqSvc    *dlq.Service
	limiter   *ratelimit.Limiter

	publisher   bus.Publisher
	assets      asset.Fetcher
	sender      *delivery.Sender
	metrics     *observability.Metrics
	tracer      *observability.Tracer
	definitions []catalog.Definition
}

// New creates a Syncer. A durable store is required.
func New(opts ...Option) (*Syncer, error) {
	s := &Syncer{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.durable == nil {
		return nil, ErrNoDurableStore
	}
	if err := s.wireServices(); err != nil {
		return nil, err
	}
	return s, nil
}

// wireServices initializes the internal services after options have been applied.
func (s *Syncer) wireServices() error {
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = observability.NewTracer()
	}
	if s.publisher == nil {
		s.publisher = bus.Noop{}
	}

	regOpts := []registry.Option{
		registry.WithLogger(s.logger),
		registry.WithMetrics(s.metrics),
		registry.WithStoreTimeout(s.config.StoreTimeout),
		registry.WithOptimisticLocking(s.config.OptimisticLocking),
	}
	if s.cache != nil {
		regOpts = append(regOpts, registry.WithCache(s.cache))
	}
	reg, err := registry.New(s.durable, regOpts...)
	if err != nil {
		return err
	}
	s.registry = reg
	s.brands = registry.NewService(reg, s.logger)

	s.catalog = catalog.New()
	for _, def := range s.definitions {
		if err := s.catalog.Register(def); err != nil {
			return err
		}
	}
	s.validator = catalog.NewValidator()
	s.builder = event.NewBuilder(s.catalog, s.validator)
	s.evaluator = routing.NewEvaluator(s.config.HighPriorityThreshold, s.logger)

	s.dlqSvc = dlq.NewService(s.durable, s.logger,
		dlq.WithMetrics(s.metrics),
		dlq.WithStoreTimeout(s.config.StoreTimeout),
	)
	s.limiter = ratelimit.New()

	if s.sender == nil {
		s.sender = delivery.NewSender(s.config.RequestTimeout, delivery.WithAgencyID(s.config.Runtime.AgencyID))
	}

	s.engine = delivery.NewEngine(reg, s.builder, delivery.EngineConfig{
		Concurrency:    s.config.Concurrency,
		RequestTimeout: s.config.RequestTimeout,
		PublishTimeout: s.config.PublishTimeout,
		MaxAttempts:    s.config.MaxAttempts,
		RetrySchedule:  s.config.RetrySchedule,
		AgencyID:       s.config.Runtime.AgencyID,
		Metrics:        s.metrics,
		Tracer:         s.tracer,
	}, s.logger,
		delivery.WithSender(s.sender),
		delivery.WithPublisher(s.publisher),
		delivery.WithFailureRecorder(s.dlqSvc),
		delivery.WithLimiter(s.limiter),
	)

	return nil
}

// Close closes the bus publisher.
func (s *Syncer) Close() error {
	return s.publisher.Close()
}

// Config returns the effective configuration.
func (s *Syncer) Config() Config { return s.config }

// Brands returns the brand registration service.
func (s *Syncer) Brands() *registry.Service { return s.brands }

// Registry returns the tiered brand registry.
func (s *Syncer) Registry() *registry.Registry { return s.registry }

// Catalog returns the event definition catalog.
func (s *Syncer) Catalog() *catalog.Catalog { return s.catalog }

// Builder returns the envelope builder.
func (s *Syncer) Builder() *event.Builder { return s.builder }

// Evaluator returns the routing rule evaluator.
func (s *Syncer) Evaluator() *routing.Evaluator { return s.evaluator }

// Engine returns the delivery engine.
func (s *Syncer) Engine() *delivery.Engine { return s.engine }

// DLQ returns the dead letter queue service.
func (s *Syncer) DLQ() *dlq.Service { return s.dlqSvc }

// Publisher returns the bus publisher.
func (s *Syncer) Publisher() bus.Publisher { return s.publisher }

// publish forwards env to the bus within PublishTimeout. Failures are logged.
func (s *Syncer) publish(ctx context.Context, env *event.Envelope) bool {
	pctx, cancel := context.WithoutCancel(ctx), context.CancelFunc(func() {})
	if s.config.PublishTimeout > 0 {
		pctx, cancel = context.WithTimeout(pctx, s.config.PublishTimeout)
	}
	defer cancel()

	err := s.publisher.Publish(pctx, env)
	s.metrics.RecordPublish(err == nil)
	if err != nil {
		s.logger.WarnContext(ctx, "bus publish failed", "event_id", env.ID, "event_type", env.Type, "error", err)
		return false
	}
	return true
}
