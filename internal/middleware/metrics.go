package middleware

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/relance/internal/handler"
)

// MetricsAuthMiddleware guards /metrics with HTTP basic auth. The cadence
// counters expose per-organization send volume, so the endpoint should not
// be left open outside development.
type MetricsAuthMiddleware struct {
	username string
	password string
	failures *RateLimiter
	logger   *slog.Logger
}

// NewMetricsAuthMiddleware creates a new metrics auth middleware.
// If both username and password are empty, authentication is disabled.
// failures may be nil; it is shared with API token authentication.
func NewMetricsAuthMiddleware(username, password string, failures *RateLimiter, logger *slog.Logger) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		username: username,
		password: password,
		failures: failures,
		logger:   logger,
	}
}

func (m *MetricsAuthMiddleware) enabled() bool {
	return m.username != "" || m.password != ""
}

// Handler returns middleware that requires basic authentication.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled() {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := getClientIP(r)
		if m.failures != nil && m.failures.Exceeded(clientIP) {
			tooManyRequests(w, m.failures.TimeUntilReset(clientIP))
			return
		}

		user, pass, ok := r.BasicAuth()
		// Evaluate both so a wrong username costs the same as a wrong password
		userMatch := secretsEqual(user, m.username)
		passMatch := secretsEqual(pass, m.password)
		if !ok || !userMatch || !passMatch {
			if m.failures != nil {
				m.failures.RecordFailure(clientIP)
			}
			m.logger.Warn("Metrics scrape rejected", "ip", clientIP, "credentials_present", ok)
			w.Header().Set("WWW-Authenticate", `Basic realm="relance metrics"`)
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}
