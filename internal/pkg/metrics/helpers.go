package metrics

import (
	"strings"
	"time"
)

// RecordRefresh records a finished refresh episode.
// outcome is one of "success", "failure" or "panic".
func RecordRefresh(outcome string, duration time.Duration) {
	RefreshEpisodes.WithLabelValues(outcome).Inc()
	RefreshDuration.Observe(float64(duration.Milliseconds()))
}

// RecordRetry records the result of a resubmitted request.
func RecordRetry(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RequestRetries.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records a served web request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, path, statusLabel(status)).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(float64(duration.Milliseconds()))
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// classifyBackendError categorizes backend call failures for metrics
func classifyBackendError(statusCode int, err error) string {
	if err != nil {
		errStr := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
			return "timeout"
		case strings.Contains(errStr, "canceled"):
			return "canceled"
		case strings.Contains(errStr, "connection"):
			return "connection"
		case strings.Contains(errStr, "tls"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 409:
		return "conflict"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
