// Package metrics exposes Prometheus instrumentation for the agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the agent's Prometheus counters and gauges.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	errorsTotal        prometheus.Counter
	clipsIngestedTotal prometheus.Counter
	tracksCreatedTotal prometheus.Counter
	probeFailuresTotal prometheus.Counter
	sectorsActive      prometheus.Gauge
}

// New creates and registers the agent's metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutline_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutline_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	clipsIngestedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutline_clips_ingested_total",
		Help: "Total number of clips placed on tracks",
	})
	tracksCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutline_tracks_created_total",
		Help: "Total number of camera tracks created by the assignment engine",
	})
	probeFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutline_probe_failures_total",
		Help: "Total number of files ffprobe could not read",
	})
	sectorsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cutline_sectors_active",
		Help: "Number of sectors in the library",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		clipsIngestedTotal,
		tracksCreatedTotal,
		probeFailuresTotal,
		sectorsActive,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		errorsTotal:        errorsTotal,
		clipsIngestedTotal: clipsIngestedTotal,
		tracksCreatedTotal: tracksCreatedTotal,
		probeFailuresTotal: probeFailuresTotal,
		sectorsActive:      sectorsActive,
	}
}

// ClipIngested increments the ingested clips counter.
func (m *Metrics) ClipIngested() {
	m.clipsIngestedTotal.Inc()
}

// TrackCreated increments the created tracks counter.
func (m *Metrics) TrackCreated() {
	m.tracksCreatedTotal.Inc()
}

// ProbeFailed increments the probe failure counter.
func (m *Metrics) ProbeFailed() {
	m.probeFailuresTotal.Inc()
}

// SetActiveSectors sets the sector gauge.
func (m *Metrics) SetActiveSectors(n int) {
	m.sectorsActive.Set(float64(n))
}

// Handler returns an http.Handler serving the registry. updateGauges is
// called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
