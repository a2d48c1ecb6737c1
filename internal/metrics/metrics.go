package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gamenight metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamenight",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamenight",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Requests currently being served
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamenight",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Session writes by operation and result
	SessionWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamenight",
			Subsystem: "sessions",
			Name:      "writes_total",
			Help:      "Total session write operations",
		},
		[]string{"operation", "result"},
	)
)

// RecordRequest records one finished HTTP request
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSessionWrite records the result of a create, upsert, delete or delete-game
func RecordSessionWrite(operation, result string) {
	SessionWritesTotal.WithLabelValues(operation, result).Inc()
}
