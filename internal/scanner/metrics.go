package scanner

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the scanner's Prometheus instruments on a private registry,
// so several scanners in one process do not collide.
type Metrics struct {
	registry     *prometheus.Registry
	filesScanned prometheus.Counter
	failures     *prometheus.CounterVec
	cacheHits    prometheus.Counter
	scanDuration prometheus.Histogram
}

// NewMetrics creates and registers the scanner instruments.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pydeps",
			Name:      "files_scanned_total",
			Help:      "Python files analyzed or served from cache.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pydeps",
			Name:      "file_failures_total",
			Help:      "Files whose imports could not be extracted, by failure class.",
		}, []string{"class"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pydeps",
			Name:      "cache_hits_total",
			Help:      "Files served from the result cache.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pydeps",
			Name:      "scan_duration_seconds",
			Help:      "Wall time of complete project scans.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	m.registry.MustRegister(m.filesScanned, m.failures, m.cacheHits, m.scanDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordFile(result FileResult) {
	m.filesScanned.Inc()
	if result.Cached {
		m.cacheHits.Inc()
	}
	if result.Failure != "" {
		m.failures.WithLabelValues(result.Failure).Inc()
	}
}

func (m *Metrics) recordScan(d time.Duration) {
	m.scanDuration.Observe(d.Seconds())
}
