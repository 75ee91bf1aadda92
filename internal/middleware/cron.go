package middleware

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/handler"
)

// CronAuthMiddleware guards scheduler endpoints with a shared bearer secret.
type CronAuthMiddleware struct {
	secret string
	logger *slog.Logger
}

// NewCronAuthMiddleware creates a new cron auth middleware.
// An empty secret rejects every request with 500 so an unconfigured
// deployment never runs the batch.
func NewCronAuthMiddleware(secret string, logger *slog.Logger) *CronAuthMiddleware {
	return &CronAuthMiddleware{
		secret: secret,
		logger: logger,
	}
}

// Handler returns middleware that requires the cron secret.
func (m *CronAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "cron.authenticate"

		if m.secret == "" {
			handler.ErrorResponse(w, r, m.logger, domain.Errorf(domain.EINTERNAL, op, "cron secret is not configured"))
			return
		}

		token, ok := bearerToken(r)
		if !ok || !secretsEqual(token, m.secret) {
			m.logger.Warn("Cron request rejected", "ip", getClientIP(r), "path", r.URL.Path)
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}
