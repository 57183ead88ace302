// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astravedam_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astravedam_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Charts
	ChartsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astravedam_charts_submitted_total",
			Help: "Charts persisted, by owner kind",
		},
		[]string{"owner"}, // "account", "anonymous", "none"
	)

	ChartsLinked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "astravedam_charts_linked_total",
			Help: "Anonymous charts claimed by an account",
		},
	)

	// Geocoding
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astravedam_geocode_requests_total",
			Help: "Geocoding lookups by outcome",
		},
		[]string{"result"}, // "success", "not_found", "failure", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "astravedam_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astravedam_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Auth
	AuthSignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astravedam_auth_signins_total",
			Help: "Google sign-ins by outcome",
		},
		[]string{"result"}, // "existing", "linked_email", "created", "failure"
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astravedam_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordChartSubmitted(owner string) {
	ChartsSubmitted.WithLabelValues(owner).Inc()
}

func RecordChartsLinked(n int) {
	if n > 0 {
		ChartsLinked.Add(float64(n))
	}
}

func RecordGeocode(result string) {
	GeocodeRequests.WithLabelValues(result).Inc()
}

func RecordSignIn(result string) {
	AuthSignIns.WithLabelValues(result).Inc()
}

func RecordRateLimited(limiter string) {
	RateLimited.WithLabelValues(limiter).Inc()
}
