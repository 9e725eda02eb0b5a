package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "astrobet"

// Outcome labels for per-entity batch results
const (
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds every collector the service exports.
// ⭐ SSOT: Prometheus 메트릭은 여기서만 정의
type Metrics struct {
	registry *prometheus.Registry

	batchRuns        *prometheus.CounterVec
	batchEntities    *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	batchLastSuccess prometheus.Gauge

	chartLatency *prometheus.HistogramVec
	chartCache   *prometheus.CounterVec
	scores       prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		batchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Batch scoring runs by terminal phase.",
		}, []string{"phase"}),
		batchEntities: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "entities_total",
			Help:      "Entities processed by outcome.",
		}, []string{"outcome"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Wall time of a batch run.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}),
		batchLastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "last_success_unixtime",
			Help:      "Finish time of the last run that reached done.",
		}),

		chartLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "compute_seconds",
			Help:      "Chart computation latency by stage.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"stage"}),
		chartCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "cache_total",
			Help:      "Chart cache lookups by result.",
		}, []string{"result"}),
		scores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "influence_score",
			Help:      "Distribution of normalized influence scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	return m
}

// Registry exposes the underlying registry (tests, custom collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEntity counts one per-entity outcome
func (m *Metrics) ObserveEntity(outcome string) {
	if m == nil {
		return
	}
	m.batchEntities.WithLabelValues(outcome).Inc()
}

// ObserveScore records a persisted normalized score
func (m *Metrics) ObserveScore(score float64) {
	if m == nil {
		return
	}
	m.scores.Observe(score)
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(phase string, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.batchRuns.WithLabelValues(phase).Inc()
	m.batchDuration.Observe(duration.Seconds())
	if phase == "done" {
		m.batchLastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// ObserveChartStage records how long one calculator stage took
func (m *Metrics) ObserveChartStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.chartLatency.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveCache counts a chart cache hit or miss
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.chartCache.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
