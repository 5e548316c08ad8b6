// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "language_tutor"

var (
	// Registry holds every collector of the process.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route template and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "route"})

	tutorReplies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tutor",
		Name:      "replies_total",
		Help:      "Reply generator calls by outcome (ok, error).",
	}, []string{"outcome"})

	tutorDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tutor",
		Name:      "reply_duration_seconds",
		Help:      "Wall time of reply generation including retries.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Response cache lookups by result (hit, miss).",
	}, []string{"result"})

	rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratelimit",
		Name:      "rejections_total",
		Help:      "Requests rejected by the token bucket, by route template.",
	}, []string{"route"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		tutorReplies,
		tutorDuration,
		cacheLookups,
		rateLimited,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted bumps the in-flight gauge and returns the matching
// decrement.
func RequestStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveRequest records one finished HTTP request.  route is the route
// template, never the raw path, to keep label cardinality bounded.
func ObserveRequest(method, route, status string, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveTutorReply records a reply generator call.
func ObserveTutorReply(ok bool, d time.Duration) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	tutorReplies.WithLabelValues(outcome).Inc()
	tutorDuration.Observe(d.Seconds())
}

// CacheLookup records a response cache hit or miss.
func CacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// RateLimited records a request rejected by the limiter.
func RateLimited(route string) { rateLimited.WithLabelValues(route).Inc() }
