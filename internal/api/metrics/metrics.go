// Package metrics defines the custom Prometheus metrics of the IAM service.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "iam"

// Login outcomes.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeRoleNotFound       = "role_not_found"
	OutcomeThrottled          = "throttled"
	OutcomeError              = "error"
)

// ── Authentication ────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - outcome: one of the Outcome* constants
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ThrottleErrorsTotal counts Redis failures of the login throttle. The
// throttle fails open, so each of these is a login that was not rate limited.
var ThrottleErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_throttle_errors_total",
		Help:      "Total number of login throttle lookups that failed.",
	},
)

// ── Users ─────────────────────────────────────────────────────────────────────

// UsersCreatedTotal counts successful registrations.
var UsersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users registered.",
	},
)

// UserRejectionsTotal counts registrations that were refused.
// Label:
//   - reason: "validation", "duplicate_email", "invalid_reference"
var UserRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_rejections_total",
		Help:      "Total number of rejected registrations, by reason.",
	},
	[]string{"reason"},
)

// ── Password hashing ──────────────────────────────────────────────────────────

// PasswordHashDuration measures a single bcrypt call on the hashing pool.
// Label:
//   - op: "hash" or "verify"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of bcrypt hash and verify calls.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1},
	},
	[]string{"op"},
)

// HashQueueDepth is the number of hashing jobs waiting for a worker.
var HashQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hash_queue_depth",
		Help:      "Current number of password hashing jobs waiting for a worker.",
	},
)
