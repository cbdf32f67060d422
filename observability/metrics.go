// Package observability holds the Prometheus instruments and the
// OpenTelemetry tracer used by the sync flow.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "assetsync"

// Metrics holds metric instruments for assetsync. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	SyncRequestsTotal *prometheus.CounterVec
	DeliveriesTotal   *prometheus.CounterVec
	DeliveryLatency   prometheus.Histogram
	SkippedTotal      *prometheus.CounterVec
	BusPublishesTotal *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	DLQSize           prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SyncRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_requests_total",
			Help:      "Asset sync notifications handled, by result.",
		}, []string{"result"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Brand deliveries, by outcome.",
		}, []string{"outcome"}),
		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_latency_seconds",
			Help:      "Latency of brand delivery HTTP calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		SkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_skipped_total",
			Help:      "Brands skipped during fan-out, by reason.",
		}, []string{"reason"}),
		BusPublishesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publishes_total",
			Help:      "Envelopes forwarded to the event bus, by result.",
		}, []string{"result"}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Registry cache tier lookups, by result.",
		}, []string{"result"}),
		DLQSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dlq_size",
			Help:      "Failed deliveries currently held in the DLQ.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SyncRequestsTotal,
			m.DeliveriesTotal,
			m.DeliveryLatency,
			m.SkippedTotal,
			m.BusPublishesTotal,
			m.CacheLookupsTotal,
			m.DLQSize,
		)
	}

	return m
}

// RecordDelivery records a delivery outcome and its latency.
func (m *Metrics) RecordDelivery(outcome string, latencySeconds float64) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(outcome).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}

// RecordSkip counts a brand skipped during fan-out.
func (m *Metrics) RecordSkip(reason string) {
	if m == nil {
		return
	}
	m.SkippedTotal.WithLabelValues(reason).Inc()
}

// RecordPublish counts a bus publish.
func (m *Metrics) RecordPublish(ok bool) {
	if m == nil {
		return
	}
	m.BusPublishesTotal.WithLabelValues(resultLabel(ok)).Inc()
}

// RecordCacheLookup counts a cache tier lookup: "hit", "miss" or "error".
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordSync counts a handled sync notification.
func (m *Metrics) RecordSync(result string) {
	if m == nil {
		return
	}
	m.SyncRequestsTotal.WithLabelValues(result).Inc()
}

// DLQAdded and DLQRemoved track the DLQ size gauge.
func (m *Metrics) DLQAdded() {
	if m != nil {
		m.DLQSize.Inc()
	}
}

func (m *Metrics) DLQRemoved(n int) {
	if m != nil {
		m.DLQSize.Sub(float64(n))
	}
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
