// Package metrics exposes Prometheus instrumentation for the stablecoin services.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector registered by the server.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
	operations    *prometheus.CounterVec
	totalSupply   prometheus.Gauge
	webhooks      *prometheus.CounterVec
	indexerEvents *prometheus.CounterVec
	invariant     prometheus.Counter
}

// New builds a Metrics instance on its own registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"service", "method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger and compliance operations by action and outcome.",
		}, []string{"action", "outcome"}),
		totalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_supply",
			Help:      "Current token supply in base units.",
		}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook alert deliveries by outcome.",
		}, []string{"outcome"}),
		indexerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexer_events_total",
			Help:      "Chain log events classified by the indexer.",
		}, []string{"kind"}),
		invariant: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supply_invariant_violations_total",
			Help:      "Reconciliation runs where balances did not sum to supply.",
		}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
		m.operations,
		m.totalSupply,
		m.webhooks,
		m.indexerEvents,
		m.invariant,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) IncrementInFlight() { m.httpInFlight.Inc() }
func (m *Metrics) DecrementInFlight() { m.httpInFlight.Dec() }

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(service, method, path, status).Inc()
	m.httpDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordOperation counts a ledger or compliance call. A nil Metrics is a no-op.
func (m *Metrics) RecordOperation(action string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(action, outcome).Inc()
}

// SetTotalSupply updates the supply gauge.
func (m *Metrics) SetTotalSupply(supply int64) {
	if m == nil {
		return
	}
	m.totalSupply.Set(float64(supply))
}

// RecordWebhook counts a delivery outcome: delivered, failed or dropped.
func (m *Metrics) RecordWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(outcome).Inc()
}

// RecordIndexerEvent counts a classified chain event.
func (m *Metrics) RecordIndexerEvent(kind string) {
	if m == nil {
		return
	}
	m.indexerEvents.WithLabelValues(kind).Inc()
}

// RecordInvariantViolation counts a failed supply reconciliation.
func (m *Metrics) RecordInvariantViolation() {
	if m == nil {
		return
	}
	m.invariant.Inc()
}
