// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the portier identity service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for API request latencies,
// ranging from 5ms to 2.5s. The slow tail covers bcrypt verification on
// the login path.
var APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portier_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portier_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method"},
	)

	// AuthOutcomesTotal counts gate outcomes: "authenticated" or "anonymous".
	AuthOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portier_auth_outcomes_total",
			Help: "Authentication gate outcomes",
		},
		[]string{"outcome"},
	)

	// PolicyRejectedTotal counts requests rejected by the route policy.
	PolicyRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portier_policy_rejected_total",
			Help: "Requests rejected by route policy",
		},
	)

	// LoginsTotal counts login attempts by outcome: "ok" or "failed".
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portier_logins_total",
			Help: "Login attempts",
		},
		[]string{"status"},
	)

	// TokensIssuedTotal counts issued bearer tokens.
	TokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portier_tokens_issued_total",
			Help: "Issued bearer tokens",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthOutcomesTotal,
		PolicyRejectedTotal,
		LoginsTotal,
		TokensIssuedTotal,
	)
}
