package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "discovery"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"group"})

	panics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_total",
		Help:      "Handler panics recovered by the middleware, by route.",
	}, []string{"route"})

	nearbyResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "nearby_results",
		Help:      "Vendors returned per proximity query.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	llmCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_calls_total",
		Help:      "Generative capability calls by purpose and outcome.",
	}, []string{"purpose", "outcome"})

	llmDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_call_duration_seconds",
		Help:      "Generative capability call latency.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30, 60},
	}, []string{"purpose"})

	recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Recommendation results by provenance and stage.",
	}, []string{"provenance", "stage"})

	fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendation_fallbacks_total",
		Help:      "Reasons the smart path was abandoned.",
	}, []string{"reason"})
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncPanic counts a recovered handler panic.
func IncPanic(route string) {
	panics.WithLabelValues(route).Inc()
}

// IncRateLimited counts a rejected request.
func IncRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// ObserveNearbyResults records the size of a proximity query result.
func ObserveNearbyResults(n int) {
	if n < 0 {
		n = 0
	}
	nearbyResults.Observe(float64(n))
}

// ObserveLLMCall records a generative call outcome and latency.
func ObserveLLMCall(purpose, outcome string, d time.Duration) {
	llmCalls.WithLabelValues(purpose, outcome).Inc()
	llmDuration.WithLabelValues(purpose).Observe(d.Seconds())
}

// IncRecommendation counts a completed recommendation.
func IncRecommendation(provenance, stage string) {
	recommendations.WithLabelValues(provenance, stage).Inc()
}

// IncFallback counts why the smart path was abandoned.
func IncFallback(reason string) {
	fallbacks.WithLabelValues(reason).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
