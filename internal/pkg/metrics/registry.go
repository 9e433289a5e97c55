package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend API Metrics
var (
	// BackendRequests tracks calls made to the club backend
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_backend_requests_total",
			Help: "Total backend API calls by method, route (normalized path), and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// BackendDuration tracks backend call latency
	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "clubhouse_backend_request_duration_ms",
			Help:                            "Backend API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// BackendErrors tracks failed backend calls
	BackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_backend_errors_total",
			Help: "Total backend API errors by route and error type",
		},
		[]string{"route", "error_type"},
	)
)

// Token refresh metrics
var (
	// RefreshEpisodes counts refresh calls by outcome (success, failure, panic)
	RefreshEpisodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_token_refresh_total",
			Help: "Total token refresh episodes by outcome",
		},
		[]string{"outcome"},
	)

	// RefreshDuration tracks how long a refresh episode keeps callers waiting
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:                            "clubhouse_token_refresh_duration_ms",
			Help:                            "Token refresh duration in milliseconds, drain included",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
	)

	// QueuedRequests counts callers parked behind an in-flight refresh
	QueuedRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clubhouse_refresh_queued_requests_total",
			Help: "Total requests queued while a token refresh was in flight",
		},
	)

	// RequestRetries counts resubmissions after a refresh by result
	RequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_request_retries_total",
			Help: "Total requests resubmitted with a refreshed credential, by result",
		},
		[]string{"result"},
	)

	// SessionTeardowns counts sessions cleared after an unrecoverable refresh
	SessionTeardowns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clubhouse_session_teardowns_total",
			Help: "Total sessions torn down after a failed token refresh",
		},
	)
)

// HTTP/Web Handler Metrics
var (
	// HTTPRequests tracks HTTP requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhouse_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration tracks HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "clubhouse_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "path"},
	)

	// ActiveSessions tracks browser sessions holding a gateway
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clubhouse_active_sessions",
			Help: "Number of browser sessions with a live backend gateway",
		},
	)
)
