package metrics

import (
	"errors"
	"time"

	"github.com/layer-3/authflow/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth service metrics
var (
	// Operations tracks auth operations by name and outcome
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authflow_server_operations_total",
			Help: "Total auth operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// Duration tracks auth operation latency
	Duration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authflow_server_operation_duration_ms",
			Help:    "Auth operation duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"operation"},
	)
)

// RecordOperation records one auth operation consistently.
// status is "success" or a short classification of err.
func RecordOperation(operation string, start time.Time, err error) {
	Duration.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
	Operations.WithLabelValues(operation, classify(err)).Inc()
}

func classify(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, core.ErrUserExists):
		return "user_exists"
	case errors.Is(err, core.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, core.ErrTokenExpired):
		return "expired"
	case errors.Is(err, core.ErrTokenInvalidated):
		return "revoked"
	case errors.Is(err, core.ErrInvalidToken):
		return "invalid_token"
	default:
		return "error"
	}
}
