// Package metrics constructs the metrics the application will track.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests *prometheus.CounterVec
	errors   prometheus.Counter
	panics   prometheus.Counter
	duration *prometheus.HistogramVec
)

var prometheusMetricsInitOnce sync.Once

// Init registers the web metrics once per process. The public and private
// muxes share the same collectors.
func Init() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "web",
		Name:      "requests_total",
		Help:      "Number of requests handled, by status code",
	}, []string{"code"})

	errors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "web",
		Name:      "errors_total",
		Help:      "Number of requests that returned an error",
	})

	panics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "web",
		Name:      "panics_total",
		Help:      "Number of panics recovered while handling requests",
	})

	duration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "treeledger",
		Subsystem: "web",
		Name:      "request_duration_seconds",
		Help:      "Time spent handling requests, by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}

// AddRequest records a handled request and how long it took.
func AddRequest(method string, route string, code string, since time.Time) {
	requests.WithLabelValues(code).Inc()
	duration.WithLabelValues(method, route).Observe(time.Since(since).Seconds())
}

// AddError records a request that failed.
func AddError() {
	errors.Inc()
}

// AddPanic records a recovered panic.
func AddPanic() {
	panics.Inc()
}
