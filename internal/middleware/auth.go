// Package middleware contains HTTP middleware for the follow-up API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/handler"
	"github.com/DukeRupert/relance/internal/repository"
)

// =============================================================================
// Token helpers
// =============================================================================

// HashToken returns the hex SHA-256 digest stored in api_tokens.token_hash.
// Raw tokens are never stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// secretsEqual compares two secrets in constant time. Both sides are hashed
// first so the comparison does not leak the expected length.
func secretsEqual(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}

// =============================================================================
// API token authentication
// =============================================================================

// OrganizationLookup resolves an API token hash to its organization.
type OrganizationLookup interface {
	GetOrganizationByTokenHash(ctx context.Context, tokenHash string) (repository.Organization, error)
}

// AuthMiddleware authenticates API requests by organization token.
type AuthMiddleware struct {
	orgs     OrganizationLookup
	failures *RateLimiter
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
//
// failures may be nil; when set, clients that keep presenting unknown tokens
// are answered with 429 until the window passes.
func NewAuthMiddleware(orgs OrganizationLookup, failures *RateLimiter, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		orgs:     orgs,
		failures: failures,
		logger:   logger,
	}
}

// RequireOrganization is middleware that requires a valid API token.
//
// The organization owning the token is stored in the request context and can
// be retrieved in handlers using:
//
//	org := auth.GetOrganization(r.Context())
//
// Flow:
//
//	Request -> RequireOrganization -> Handler
//	           |
//	           +-> Read bearer token (401 if missing)
//	           +-> Hash and look up (401 if unknown)
//	           +-> Set organization in context
func (m *AuthMiddleware) RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		if m.failures != nil && m.failures.Exceeded(clientIP) {
			tooManyRequests(w, m.failures.TimeUntilReset(clientIP))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		org, err := m.orgs.GetOrganizationByTokenHash(r.Context(), HashToken(token))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				if m.failures != nil {
					m.failures.RecordFailure(clientIP)
				}
				m.logger.Info("Unknown api token", "ip", clientIP, "path", r.URL.Path)
				handler.UnauthorizedResponse(w, r, m.logger)
				return
			}
			handler.InternalErrorResponse(w, r, m.logger, err)
			return
		}

		ctx := auth.SetOrganization(r.Context(), &org)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw.Handler, authMw.RequireOrganization)
//	mux.Handle("GET /api/entitlements", stack(entitlementsHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireOrganization
	_ func(http.Handler) http.Handler = (&CronAuthMiddleware{}).Handler
)
