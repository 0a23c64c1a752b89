// Package metrics provides Prometheus instrumentation for the analysis
// pipeline and its HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "adpulse"
	subsystem = "pipeline"
)

// Custom registry to avoid the default Go runtime collectors.
var registry = prometheus.NewRegistry()

var (
	segmentsProcessed = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "segments_processed_total",
		Help:      "Total segments that produced a persisted record.",
	})

	segmentsDiscarded = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "segments_discarded_total",
		Help:      "Total segments discarded before scoring, by discard kind.",
	}, []string{"kind"})

	adsGenerated = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ads_generated_total",
		Help:      "Total ads successfully generated and attached.",
	})

	creativeFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "creative_failures_total",
		Help:      "Total creative calls that failed after a generate decision.",
	})

	perceptionLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "perception_latency_seconds",
		Help:      "Wall-clock latency of perception calls.",
		Buckets:   prometheus.DefBuckets,
	})

	creativeLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "creative_latency_seconds",
		Help:      "Wall-clock latency of creative calls.",
		Buckets:   prometheus.DefBuckets,
	})

	httpRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint and status code.",
	}, []string{"endpoint", "status"})

	httpDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// IncSegmentsProcessed counts a persisted record.
func IncSegmentsProcessed() { segmentsProcessed.Inc() }

// IncSegmentsDiscarded counts a discarded segment by kind.
func IncSegmentsDiscarded(kind string) { segmentsDiscarded.WithLabelValues(kind).Inc() }

// IncAdsGenerated counts a successfully attached ad.
func IncAdsGenerated() { adsGenerated.Inc() }

// IncCreativeFailures counts a failed creative call.
func IncCreativeFailures() { creativeFailures.Inc() }

// ObservePerceptionLatency records a perception call latency in milliseconds.
func ObservePerceptionLatency(ms int64) {
	perceptionLatency.Observe(float64(ms) / 1000)
}

// ObserveCreativeLatency records a creative call latency in milliseconds.
func ObserveCreativeLatency(ms int64) {
	creativeLatency.Observe(float64(ms) / 1000)
}

// ObserveHTTPRequest records one HTTP request.
func ObserveHTTPRequest(endpoint string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
