// Package telemetry exports ingestion metrics in Prometheus format.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

const namespace = "regulatory_scanner"

// Metrics holds the collectors for ingestion runs and the HTTP surface.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	ArticlesFound    *prometheus.CounterVec
	ArticlesAdmitted *prometheus.CounterVec
	SourceFailures   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

var _ ports.RunRecorder = (*Metrics)(nil)

// NewMetrics registers every collector on a private registry so tests can build many instances.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ingestion runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one ingestion run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"trigger"}),
		ArticlesFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_found_total",
			Help:      "Candidates emitted by source adapters.",
		}, []string{"source"}),
		ArticlesAdmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_admitted_total",
			Help:      "Articles inserted as pending.",
		}, []string{"source"}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Source runs that ended with a fetch or storage error.",
		}, []string{"source"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

// RecordRun folds one run report into the counters.
func (m *Metrics) RecordRun(trigger string, report domain.RunReport, duration time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case report.StorageFailed():
		outcome = "storage_error"
	}
	m.RunsTotal.WithLabelValues(trigger, outcome).Inc()
	m.RunDuration.WithLabelValues(trigger).Observe(duration.Seconds())

	for _, res := range report.Results {
		source := string(res.Source)
		m.ArticlesFound.WithLabelValues(source).Add(float64(res.ArticlesFound))
		m.ArticlesAdmitted.WithLabelValues(source).Add(float64(res.ArticlesFiltered))
		if res.Error != "" {
			m.SourceFailures.WithLabelValues(source).Inc()
		}
	}
}

// ObserveRequest counts one served HTTP request.
func (m *Metrics) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
