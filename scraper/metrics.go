package scraper

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "books_scraper"

// Metrics bundles Prometheus collectors for the crawler. It lives on its own
// registry so tests can build many scrapers side by side.
type Metrics struct {
	Registry        *prometheus.Registry
	Requests        *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	Items           prometheus.Counter
	Retries         prometheus.Counter
	Errors          *prometheus.CounterVec
	Categories      prometheus.Counter
}

// NewMetrics registers the scraper collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Catalog requests by phase (started, completed).",
		}, []string{"phase"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request start to response.",
			Buckets:   prometheus.DefBuckets,
		}),
		Items: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "books_scraped_total",
			Help:      "Book listings handed to the pipeline.",
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Retry attempts scheduled.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Failed requests by error type.",
		}, []string{"error_type"}),
		Categories: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "categories_total",
			Help:      "Category listings queued for crawling.",
		}),
	}

	m.Registry.MustRegister(m.Requests, m.RequestDuration, m.Items, m.Retries, m.Errors, m.Categories)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(phase).Inc()
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.Items.Inc()
}

func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}

func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(errorType).Inc()
}

func (m *Metrics) IncCategories() {
	if m == nil {
		return
	}
	m.Categories.Inc()
}
