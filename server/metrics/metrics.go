// Package metrics exposes upload and persistence counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "capture"

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeCompensated = "compensated"
)

// Metrics is safe to use as a nil pointer, which records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	uploadsTotal   *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	recordsTotal   *prometheus.CounterVec
	mirrorsTotal   *prometheus.CounterVec
}

// New registers the capture metrics, plus Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		uploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Primary media uploads by kind and outcome",
		}, []string{"kind", "outcome"}),

		uploadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Primary media upload duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),

		recordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Upload record inserts by outcome",
		}, []string{"outcome"}),

		mirrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirrors_total",
			Help:      "Mirror copies by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) ObserveUpload(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(kind, outcome).Inc()
	m.uploadDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// MarkCompensated counts an upload that succeeded but was rolled back.
func (m *Metrics) MarkCompensated(kind string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(kind, OutcomeCompensated).Inc()
}

func (m *Metrics) ObserveMirror(kind, outcome string) {
	if m == nil {
		return
	}
	m.mirrorsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveRecord(outcome string) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
