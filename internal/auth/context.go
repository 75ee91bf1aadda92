// Package auth provides authentication context helpers.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"

	"github.com/DukeRupert/relance/internal/repository"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// organizationContextKey is the key used to store the authenticated
	// organization in context.
	organizationContextKey contextKey = "organization"

	requestIDContextKey contextKey = "request_id"
)

// GetOrganization retrieves the authenticated organization from the context.
//
// Returns nil if the request was not authenticated with an API token.
//
// Usage:
//
//	org := auth.GetOrganization(r.Context())
//	if org == nil {
//	    // Handle unauthenticated request
//	}
func GetOrganization(ctx context.Context) *repository.Organization {
	org, ok := ctx.Value(organizationContextKey).(*repository.Organization)
	if !ok {
		return nil
	}
	return org
}

// SetOrganization stores an organization in the context.
//
// This is called by the API token middleware once the token hash resolved
// to an organization.
func SetOrganization(ctx context.Context, org *repository.Organization) context.Context {
	return context.WithValue(ctx, organizationContextKey, org)
}

// SetRequestID stores the request ID assigned by the logging middleware.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestID returns the ID of the current request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
