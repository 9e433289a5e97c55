package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/clubhouse/internal/pkg/idgen"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/pkg/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LogRequest logs each request and records it in the HTTP metrics.
func LogRequest(log *slog.Logger) mux.MiddlewareFunc {
	log = logger.WithComponent(log, "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = idgen.RequestID()
			}
			wrapped.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			route := routeTemplate(r)
			metrics.RecordHTTPRequest(r.Method, route, wrapped.statusCode, duration)

			// Skip logging health checks and static files to reduce noise
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" || isStaticFile(r.URL.Path) {
				return
			}

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", wrapped.statusCode),
				slog.Int64("bytes", wrapped.written),
				slog.String("client_ip", clientIP(r)),
				slog.String("user_agent", r.UserAgent()),
			}

			l := logger.WithDuration(logger.WithRequest(log, requestID), duration)
			if wrapped.statusCode >= 500 {
				l.Error("request failed", attrs...)
			} else {
				l.Info("request", attrs...)
			}
		})
	}
}

// routeTemplate is the matched mux route, keeping metric label cardinality bounded.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// isStaticFile checks if the path is a static file request
func isStaticFile(path string) bool {
	return strings.HasPrefix(path, "/static/")
}
