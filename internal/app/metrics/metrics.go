package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dataconnect"

// Submission results.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"app", "method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"app", "method", "path"},
	)

	credentialRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "credential_refresh_total",
			Help:      "Database credential fetches by provider and result.",
		},
		[]string{"provider", "result"},
	)

	poolRebuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "pool_rebuilds_total",
			Help:      "Number of times the connection pool was (re)built.",
		},
	)

	databaseUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "up",
			Help:      "1 when the last database probe succeeded.",
		},
		[]string{"app"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by form and result.",
		},
		[]string{"form", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		credentialRefreshes,
		poolRebuilds,
		databaseUp,
		submissions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveHTTPRequest records one handled request. path should be a route
// template; raw paths are collapsed to their first segment.
func ObserveHTTPRequest(app, method, path string, status int, duration time.Duration) {
	if !strings.Contains(path, "{") {
		path = CanonicalPath(path)
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(app, method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(app, method, path).Observe(duration.Seconds())
}

// RecordSubmission counts a form submission. A nil err is a success.
func RecordSubmission(form string, invalid bool, err error) {
	result := ResultSuccess
	switch {
	case invalid:
		result = ResultInvalid
	case err != nil:
		result = ResultError
	}
	submissions.WithLabelValues(form, result).Inc()
}

// SetDatabaseUp records the outcome of a connectivity probe.
func SetDatabaseUp(app string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	databaseUp.WithLabelValues(app).Set(v)
}

// PoolObserver feeds connection pool events into the registry.
type PoolObserver struct{}

func (PoolObserver) CredentialRefreshed(provider string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	credentialRefreshes.WithLabelValues(provider, result).Inc()
}

func (PoolObserver) PoolRebuilt() {
	poolRebuilds.Inc()
}

// CanonicalPath bounds label cardinality for paths that did not match a
// route: "/api/tasks/17/toggle" becomes "/api/tasks".
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" || len(parts) == 1 {
		return "/" + parts[0]
	}
	return "/api/" + parts[1]
}
