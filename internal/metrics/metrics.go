// Package metrics exposes Prometheus instrumentation for broadcast
// compilation and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compilation outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
)

// Metrics contains all Prometheus metrics for the broadcast service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Compilation metrics
	Compilations        *prometheus.CounterVec
	CompileDuration     prometheus.Histogram
	CompilesInFlight    prometheus.Gauge
	TokensResolved      *prometheus.CounterVec
	DelaysEmitted       prometheus.Counter
	OutputDuration      prometheus.Histogram
	MappingLoadFailures prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,

		Compilations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atis_compilations_total",
			Help: "Total number of broadcast compilations by outcome",
		}, []string{"outcome"}),
		CompileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "atis_compile_duration_seconds",
			Help:    "Wall time spent compiling and exporting a broadcast",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}),
		CompilesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "atis_compiles_in_flight",
			Help: "Current number of compilations holding a worker slot",
		}),
		TokensResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atis_tokens_resolved_total",
			Help: "Total number of words resolved to clips, by resolution strategy",
		}, []string{"strategy"}),
		DelaysEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "atis_delays_emitted_total",
			Help: "Total number of delay tokens emitted",
		}),
		OutputDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "atis_output_duration_seconds",
			Help:    "Playback length of exported broadcasts",
			Buckets: prometheus.LinearBuckets(5, 5, 12), // 5s to 60s
		}),
		MappingLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "atis_mapping_load_failures_total",
			Help: "Total number of unreadable mapping files",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atis_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atis_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// NewDefault registers metrics with the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// Handler serves the registered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordCompilation records the outcome and duration of one compilation.
func (m *Metrics) RecordCompilation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Compilations.WithLabelValues(outcome).Inc()
	if outcome != OutcomeBusy {
		m.CompileDuration.Observe(d.Seconds())
	}
}

// RecordResolutions adds per-strategy word counts.
func (m *Metrics) RecordResolutions(counts map[string]int) {
	if m == nil {
		return
	}
	for strategy, n := range counts {
		m.TokensResolved.WithLabelValues(strategy).Add(float64(n))
	}
}

// RecordDelays adds emitted delay tokens.
func (m *Metrics) RecordDelays(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DelaysEmitted.Add(float64(n))
}

// RecordOutput observes the length of an exported broadcast.
func (m *Metrics) RecordOutput(d time.Duration) {
	if m == nil {
		return
	}
	m.OutputDuration.Observe(d.Seconds())
}

// RecordMappingLoadFailure increments the mapping failure counter.
func (m *Metrics) RecordMappingLoadFailure() {
	if m == nil {
		return
	}
	m.MappingLoadFailures.Inc()
}

// CompileStarted marks a worker slot as taken.
func (m *Metrics) CompileStarted() {
	if m == nil {
		return
	}
	m.CompilesInFlight.Inc()
}

// CompileFinished releases a worker slot.
func (m *Metrics) CompileFinished() {
	if m == nil {
		return
	}
	m.CompilesInFlight.Dec()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}
