// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for finalize and verify counters.
const (
	OutcomeVerified     = "verified"
	OutcomeFinalized    = "finalized"
	OutcomeAlreadyUsed  = "already_used"
	OutcomeNotFound     = "not_found"
	OutcomeNotFinalized = "not_finalized"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

var (
	VerificationsPrepared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pop_verifications_prepared_total",
			Help: "Total number of verifications prepared",
		},
	)

	VerificationsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pop_verifications_finalized_total",
			Help: "Finalize attempts by outcome",
		},
		[]string{"outcome"},
	)

	VerifyAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pop_verify_attempts_total",
			Help: "Verify attempts by outcome",
		},
		[]string{"outcome"},
	)

	SideEffectErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pop_side_effect_errors_total",
			Help: "Best-effort side effects that failed (archive, publish)",
		},
		[]string{"kind"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pop_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	GRPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pop_grpc_requests_total",
			Help: "gRPC requests by method and code",
		},
		[]string{"method", "code"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
