package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// backendMetricsTransport wraps an http.RoundTripper to collect metrics on backend calls
type backendMetricsTransport struct {
	base http.RoundTripper
}

// NewBackendTransport returns a transport that records every backend round trip.
// Install it on both the authenticated and the refresh client.
func NewBackendTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &backendMetricsTransport{base: base}
}

func (t *backendMetricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	route := NormalizeRoute(req.URL.Path)
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	BackendRequests.WithLabelValues(req.Method, route, strconv.Itoa(statusCode)).Inc()
	BackendDuration.WithLabelValues(req.Method, route).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		BackendErrors.WithLabelValues(route, classifyBackendError(statusCode, err)).Inc()
	}

	return resp, err
}

var routePatterns = []struct {
	regex   *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`/join-requests/[^/]+`), "/join-requests/:id"},
	{regexp.MustCompile(`/groups/[^/]+`), "/groups/:id"},
	{regexp.MustCompile(`/clubs/[^/]+`), "/clubs/:id"},
	{regexp.MustCompile(`/activities/\d+`), "/activities/:id"},
	{regexp.MustCompile(`/activity/[^/]+`), "/activity/:id"},
}

// NormalizeRoute replaces resource IDs in a backend path with placeholders
// so metric label cardinality stays bounded.
func NormalizeRoute(path string) string {
	normalized := path
	for _, p := range routePatterns {
		normalized = p.regex.ReplaceAllString(normalized, p.replace)
	}
	return normalized
}
