package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/oklog/ulid/v2"
)

// RequestIDHeader carries the request ID back to the client.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// Paths served without an access log line.
var quietPaths = []string{"/health", "/metrics"}

// Query parameters whose values never reach the logs.
var redactedParams = []string{
	"token", "code", "key", "secret", "password",
	"api_key", "apikey", "access_token", "refresh_token",
}

// RequestLoggingMiddleware writes one access log line per request and tags
// the request with an ID.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
}

func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{logger: logger}
}

// Handler assigns the request ID, stores it in the context for error logs,
// and logs method, route, status and timing once the response is written.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isQuietPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		// Reuse a caller-supplied ID so scheduler logs can be correlated
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(auth.SetRequestID(r.Context(), requestID)))

		level := slog.LevelInfo
		if rec.statusCode >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		m.logger.Log(r.Context(), level, "Request",
			"request_id", requestID,
			"method", r.Method,
			"path", redactQuery(r.URL),
			"status", rec.statusCode,
			"bytes", rec.written,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", getClientIP(r),
			"user_agent", r.UserAgent(),
		)
	})
}

func isQuietPath(path string) bool {
	return slices.ContainsFunc(quietPaths, func(p string) bool {
		return strings.HasPrefix(path, p)
	})
}

// responseWriter records the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// redactQuery returns the path and query with sensitive values replaced.
// Parameters are sorted by url.Values.Encode.
func redactQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return u.Path
	}
	for name, values := range query {
		if !slices.Contains(redactedParams, strings.ToLower(name)) {
			continue
		}
		for i := range values {
			values[i] = "REDACTED"
		}
	}
	return u.Path + "?" + query.Encode()
}
