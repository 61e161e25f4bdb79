// Package metrics exports service counters and latencies to Prometheus.
// Every method is safe on a nil *Metrics so callers never need to check
// whether metrics are enabled.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery outcomes.
const (
	DeliveryDelivered = "delivered"
	DeliveryRetried   = "retried"
	DeliveryFailed    = "failed"
)

// Metrics holds every collector the service records to.
type Metrics struct {
	assessments  *prometheus.CounterVec
	leads        *prometheus.CounterVec
	pdfDuration  *prometheus.HistogramVec
	pdfCache     *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
	webhooks     *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the collectors on reg (the default registerer when nil).
// Registering twice on the same registry reuses the existing collectors.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "realyou"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{}
	var err error
	if m.assessments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessments_scored_total",
		Help:      "Assessments scored, by resulting type code.",
	}, []string{"type_code"})); err != nil {
		return nil, err
	}
	if m.leads, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_captured_total",
		Help:      "Lead capture submissions, by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.pdfDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pdf_render_duration_seconds",
		Help:      "Latency of PDF report rendering.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.pdfCache, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pdf_cache_lookups_total",
		Help:      "Rendered PDF cache lookups, by result.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.deliveries, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_total",
		Help:      "Purchase delivery attempts, by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.webhooks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stripe_webhooks_total",
		Help:      "Stripe webhook deliveries, by event type and outcome.",
	}, []string{"type", "outcome"})); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by route pattern, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("metrics: register collector: %w", err)
	}
	return c, nil
}

// Handler serves the metrics in g (the default gatherer when nil).
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveAssessment(typeCode string) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(typeCode).Inc()
}

func (m *Metrics) ObserveLead(duplicate bool) {
	if m == nil {
		return
	}
	label := "new"
	if duplicate {
		label = "duplicate"
	}
	m.leads.WithLabelValues(label).Inc()
}

func (m *Metrics) ObservePDF(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.pdfDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

func (m *Metrics) ObservePDFCache(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.pdfCache.WithLabelValues(label).Inc()
}

// ObserveDelivery takes one of the Delivery* outcomes.
func (m *Metrics) ObserveDelivery(result string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveWebhook(eventType string, err error) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(eventType, outcome(err)).Inc()
}

// ObserveHTTP records one request. route must be the router pattern, not the
// raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
