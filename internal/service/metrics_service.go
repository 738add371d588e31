package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "records"

// Ledger write operations reported by the exam result counter.
const (
	LedgerOpCreate = "create"
	LedgerOpUpdate = "update"
	LedgerOpDelete = "delete"
)

// MetricsService owns a private Prometheus registry. A nil *MetricsService is
// valid and records nothing, so callers never need to guard.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.GaugeFunc
	attendanceMarks *prometheus.CounterVec
	examResults     *prometheus.CounterVec

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

// NewMetricsService registers the collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)
	factory := promauto.With(registry)

	m := &MetricsService{registry: registry}
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	m.requestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.requestTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	m.cacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Report cache lookups by result.",
	}, []string{"result"})
	m.cacheLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "lookup_seconds",
		Help:      "Latency of report cache lookups.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})
	m.cacheWrite = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "write_seconds",
		Help:      "Latency of report cache writes.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})
	m.cacheHitRatio = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "hit_ratio",
		Help:      "Hits over lookups since start.",
	}, m.hitRatio)

	m.attendanceMarks = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "attendance_marks_total",
		Help:      "Attendance marks written, by outcome.",
	}, []string{"outcome"})
	m.examResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "exam_results_written_total",
		Help:      "Exam result writes, by operation.",
	}, []string{"op"})

	return m
}

// Handler serves the exposition format. A nil service answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request under its route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
}

// RecordCacheOperation records one lookup and its latency.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Add(1)
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheMisses.Add(1)
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCacheWrite records the latency of one cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordAttendanceMarks counts inserted and overwritten marks of one batch.
func (m *MetricsService) RecordAttendanceMarks(inserted, updated int) {
	if m == nil {
		return
	}
	m.attendanceMarks.WithLabelValues("inserted").Add(float64(inserted))
	m.attendanceMarks.WithLabelValues("updated").Add(float64(updated))
}

// RecordExamResultWrite counts one exam result mutation.
func (m *MetricsService) RecordExamResultWrite(op string) {
	if m == nil {
		return
	}
	m.examResults.WithLabelValues(op).Inc()
}

func (m *MetricsService) hitRatio() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
