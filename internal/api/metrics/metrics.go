// Package metrics defines and registers all custom Prometheus metrics for the
// auth portal. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the host on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login form submissions.
// Label:
//   - result: "success", "invalid_input" (rejected locally), "rejected" (backend refused), "busy"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login submissions, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts explicit logouts from a page.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of explicit logouts.",
	},
)

// SessionExpiredTotal counts sessions ended by the backend or by token expiry.
// Label:
//   - source: "unauthorized" (401 from the API) or "token_exp" (local expiry timer)
var SessionExpiredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_expired_total",
		Help:      "Total number of sessions marked expired, by source.",
	},
	[]string{"source"},
)

// ── Routing metrics ───────────────────────────────────────────────────────────

// GuardRedirectsTotal counts redirects initiated by route guards.
// Labels:
//   - page: the guarded page ("login", "dashboard", "admin")
//   - target: the redirect path
var GuardRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_redirects_total",
		Help:      "Total number of guard-initiated redirects, by page and target.",
	},
	[]string{"page", "target"},
)

// ── Product metrics ───────────────────────────────────────────────────────────

// ProductFetchTotal counts dashboard product list loads.
// Label:
//   - result: "success" or "error"
var ProductFetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_fetch_total",
		Help:      "Total number of product list fetches, by result.",
	},
	[]string{"result"},
)

// APIRequestDuration measures backend API round trips.
// Labels:
//   - endpoint: "login" or "products"
//   - status: HTTP status code, or "error" on transport failure
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of backend API requests.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"endpoint", "status"},
)
