package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/event"
	"github.com/xraph/assetsync/observability"
	"github.com/xraph/assetsync/registry"
)

// BrandSource resolves brands for delivery.
type BrandSource interface {
	Get(ctx context.Context, brandID string) (*registry.Brand, error)
}

// Publisher forwards envelopes to the internal event bus.
type Publisher interface {
	Publish(ctx context.Context, env *event.Envelope) error
}

// FailureRecorder stores unsuccessful deliveries, typically in the DLQ.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, f Failure) error
}

// Limiter throttles outbound deliveries per brand.
type Limiter interface {
	Wait(ctx context.Context, brandID string, perSecond int) error
}

// EngineConfig holds engine configuration.
type EngineConfig struct {
	Concurrency    int
	RequestTimeout time.Duration
	PublishTimeout time.Duration
	MaxAttempts    int
	RetrySchedule  []time.Duration
	AgencyID       string
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer
}

// Job is one fan-out: an event code and payload to deliver to brands.
type Job struct {
	EventCode string
	Data      map[string]any
	Runtime   event.Runtime

	// BrandIDs are attempted in this order and reported in this order.
	BrandIDs []string

	// Source overrides the runtime-derived envelope source.
	Source string
}

// BrandReport is the per-brand outcome of a Dispatch.
type BrandReport struct {
	BrandID       string         `json:"brandId"`
	EventID       string         `json:"eventId,omitempty"`
	Skipped       bool           `json:"skipped,omitempty"`
	SkipReason    SkipReason     `json:"skipReason,omitempty"`
	Outcome       Outcome        `json:"outcome,omitempty"`
	Delivered     bool           `json:"delivered"`
	Published     bool           `json:"published"`
	StatusCode    int            `json:"statusCode,omitempty"`
	Attempts      int            `json:"attempts,omitempty"`
	Error         string         `json:"error,omitempty"`
	RoutingResult map[string]any `json:"routingResult,omitempty"`
}

// Report aggregates a Dispatch.
type Report struct {
	EventCode string        `json:"eventCode"`
	Brands    []BrandReport `json:"brands"`
}

// Delivered counts brands that accepted the envelope.
func (r *Report) Delivered() int {
	n := 0
	for i := range r.Brands {
		if r.Brands[i].Delivered {
			n++
		}
	}
	return n
}

// Engine fans an event out to brands, one independent delivery per brand.
type Engine struct {
	brands    BrandSource
	builder   *event.Builder
	sender    *Sender
	retrier   *Retrier
	publisher Publisher
	failures  FailureRecorder
	limiter   Limiter
	config    EngineConfig
	logger    *slog.Logger
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithPublisher sets the bus publisher.
func WithPublisher(p Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithFailureRecorder sets where failed deliveries are recorded.
func WithFailureRecorder(f FailureRecorder) EngineOption {
	return func(e *Engine) { e.failures = f }
}

// WithLimiter sets the outbound rate limiter.
func WithLimiter(l Limiter) EngineOption {
	return func(e *Engine) { e.limiter = l }
}

// WithSender replaces the default sender.
func WithSender(s *Sender) EngineOption {
	return func(e *Engine) { e.sender = s }
}

// NewEngine creates a delivery engine.
func NewEngine(brands BrandSource, builder *event.Builder, cfg EngineConfig, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	e := &Engine{
		brands:  brands,
		builder: builder,
		sender:  NewSender(cfg.RequestTimeout, WithAgencyID(cfg.AgencyID)),
		retrier: NewRetrier(cfg.MaxAttempts, cfg.RetrySchedule),
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sender returns the sender used for deliveries.
func (e *Engine) Sender() *Sender { return e.sender }

// Dispatch delivers job to every brand. Only an unknown event code fails the
// call; per-brand problems are reported and never propagated. Once ctx is
// done no new brand is started; deliveries already in flight finish.
func (e *Engine) Dispatch(ctx context.Context, job Job) (*Report, error) {
	def, err := e.builder.Definition(job.EventCode)
	if err != nil {
		return nil, err
	}

	report := &Report{EventCode: def.Code, Brands: make([]BrandReport, len(job.BrandIDs))}

	var span trace.Span
	if e.config.Tracer != nil {
		ctx, span = e.config.Tracer.StartSyncSpan(ctx, def.Code, len(job.BrandIDs))
		defer span.End()
	}

	var g errgroup.Group
	g.SetLimit(e.config.Concurrency)

	for i, brandID := range job.BrandIDs {
		if ctx.Err() != nil {
			report.Brands[i] = e.skip(ctx, brandID, SkipCancelled, ctx.Err())
			continue
		}
		g.Go(func() error {
			report.Brands[i] = e.deliver(ctx, def, job, brandID)
			return nil
		})
	}
	_ = g.Wait()

	return report, nil
}

func (e *Engine) deliver(ctx context.Context, def *catalog.Definition, job Job, brandID string) BrandReport {
	if ctx.Err() != nil {
		return e.skip(ctx, brandID, SkipCancelled, ctx.Err())
	}

	b, err := e.brands.Get(ctx, brandID)
	if errors.Is(err, registry.ErrBrandNotFound) {
		return e.skip(ctx, brandID, SkipNotRegistered, nil)
	}
	if err != nil {
		return e.skip(ctx, brandID, SkipLookupFailed, err)
	}
	b = b.Clone()

	if !b.Enabled && !def.DeliverWhenDisabled {
		return e.skip(ctx, brandID, SkipDisabled, nil)
	}

	data := make(map[string]any, len(job.Data)+1)
	for k, v := range job.Data {
		data[k] = v
	}
	data["brandId"] = b.ID

	var buildOpts []event.BuildOption
	if job.Source != "" {
		buildOpts = append(buildOpts, event.WithSource(job.Source))
	}
	env, err := e.builder.Build(def.Code, data, job.Runtime, buildOpts...)
	if err != nil {
		return e.skip(ctx, brandID, SkipInvalidEvent, err)
	}

	if e.limiter != nil && b.RateLimit > 0 {
		if err := e.limiter.Wait(ctx, b.ID, b.RateLimit); err != nil {
			return e.skip(ctx, brandID, SkipCancelled, err)
		}
	}

	// The send itself is not cut short by the caller going away.
	sendCtx := context.WithoutCancel(ctx)

	rep := BrandReport{BrandID: b.ID, EventID: env.ID}
	rep.Outcome, rep.Attempts = e.send(ctx, sendCtx, b, env, &rep)
	rep.Delivered = rep.Outcome == OutcomeDelivered

	rep.Published = e.publish(sendCtx, env)

	return rep
}

// send runs the attempt loop. Retries stop early when ctx is done.
func (e *Engine) send(ctx, sendCtx context.Context, b *registry.Brand, env *event.Envelope, rep *BrandReport) (Outcome, int) {
	var span trace.Span
	if e.config.Tracer != nil {
		sendCtx, span = e.config.Tracer.StartDeliverySpan(sendCtx, env.ID, env.Type, b.ID)
	}

	var (
		res     Result
		outcome Outcome
		attempt int
	)
	for {
		attempt++
		attemptCtx, cancel := e.attemptContext(sendCtx)
		res = e.sender.Send(attemptCtx, b, env)
		cancel()

		outcome = Classify(res)
		e.config.Metrics.RecordDelivery(string(outcome), float64(res.LatencyMs)/1000.0)

		if e.retrier.Decide(outcome, attempt) != Retry {
			break
		}

		e.logger.DebugContext(ctx, "delivery retry scheduled",
			"brand_id", b.ID, "event_id", env.ID, "attempt", attempt, "status", res.StatusCode)
		if !sleep(ctx, e.retrier.Backoff(attempt)) {
			break
		}
	}

	rep.StatusCode = res.StatusCode
	rep.Error = res.Error
	rep.RoutingResult = res.RoutingResult

	if span != nil {
		e.config.Tracer.EndDeliverySpan(span, res.StatusCode, res.LatencyMs, string(outcome), res.Error)
	}

	if outcome == OutcomeDelivered {
		e.logger.DebugContext(ctx, "delivered",
			"brand_id", b.ID, "event_id", env.ID, "status", res.StatusCode, "latency_ms", res.LatencyMs)
		return outcome, attempt
	}

	e.logger.WarnContext(ctx, "brand delivery failed",
		"brand_id", b.ID,
		"event_id", env.ID,
		"event_type", env.Type,
		"endpoint", b.EndpointURL,
		"outcome", outcome,
		"status", res.StatusCode,
		"attempts", attempt,
		"headers", res.Headers,
		"response", res.Response,
		"error", res.Error,
	)

	if e.failures != nil {
		body, _ := env.JSON()
		err := e.failures.RecordFailure(sendCtx, Failure{
			BrandID:    b.ID,
			EventID:    env.ID,
			EventType:  env.Type,
			URL:        b.EndpointURL,
			Envelope:   body,
			Outcome:    outcome,
			Error:      res.Error,
			StatusCode: res.StatusCode,
			Response:   res.Response,
			Attempts:   attempt,
		})
		if err != nil {
			e.logger.ErrorContext(ctx, "record failed delivery", "brand_id", b.ID, "event_id", env.ID, "error", err)
		}
	}

	return outcome, attempt
}

func (e *Engine) publish(ctx context.Context, env *event.Envelope) bool {
	if e.publisher == nil {
		return false
	}

	pctx, cancel := ctx, context.CancelFunc(func() {})
	if e.config.PublishTimeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, e.config.PublishTimeout)
	}
	defer cancel()

	err := e.publisher.Publish(pctx, env.Clone())
	e.config.Metrics.RecordPublish(err == nil)
	if err != nil {
		e.logger.WarnContext(ctx, "bus publish failed",
			"event_id", env.ID, "event_type", env.Type, "error", err)
		return false
	}
	return true
}

func (e *Engine) skip(ctx context.Context, brandID string, reason SkipReason, err error) BrandReport {
	e.config.Metrics.RecordSkip(string(reason))

	rep := BrandReport{BrandID: brandID, Skipped: true, SkipReason: reason}
	if err != nil {
		rep.Error = err.Error()
		e.logger.WarnContext(ctx, "brand skipped", "brand_id", brandID, "reason", reason, "error", err)
	} else {
		e.logger.InfoContext(ctx, "brand skipped", "brand_id", brandID, "reason", reason)
	}
	return rep
}

func (e *Engine) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.config.RequestTimeout)
}

// sleep waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
