// Package metrics exposes the storefront's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	statusTransitions *prometheus.CounterVec
	dispatchOutcomes  *prometheus.CounterVec
	webhookEvents     *prometheus.CounterVec
	supplierCache     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status changes by origin and target status.",
		}, []string{"source", "to"}),
		dispatchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_dispatch_total",
			Help:      "Supplier create-order attempts by outcome.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook deliveries by provider and result.",
		}, []string{"provider", "result"}),
		supplierCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_cache_requests_total",
			Help:      "Supplier proxy cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.statusTransitions,
		m.dispatchOutcomes,
		m.webhookEvents,
		m.supplierCache,
	)
	return m
}

func (m *Metrics) StatusTransition(source, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(source, to).Inc()
}

// Dispatch outcomes.
const (
	DispatchSent     = "sent"
	DispatchFailed   = "failed"
	DispatchDead     = "dead"
	DispatchSkipped  = "skipped"
	DispatchEnqueued = "enqueued"
)

func (m *Metrics) DispatchOutcome(outcome string) {
	if m == nil {
		return
	}
	m.dispatchOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WebhookEvent(provider, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.supplierCache.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
