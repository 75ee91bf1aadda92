package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/locale"
)

// JSONError is the body of every API error response. The permission fields
// are only present when a send was refused by the organization's entitlements.
type JSONError struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Limit       *int   `json:"limit,omitempty"`
	Used        *int   `json:"used,omitempty"`
	Action      string `json:"action,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// ErrorResponse writes an error response to the client.
// It maps domain error codes to HTTP status codes. Permission errors carry
// their reason, the remediation and a localized message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	// Extract structured info from error
	code := domain.ErrorCode(err)
	op := domain.ErrorOp(err)

	// Map to HTTP status
	status := ErrorCodeToHTTPStatus(code)

	// Log error with context
	logError(logger, r, err, code, op, status)

	if pe, ok := domain.AsPermissionError(err); ok {
		writeJSON(w, status, permissionBody(r, pe))
		return
	}

	writeJSON(w, status, JSONError{
		Error:   code,
		Message: domain.ErrorMessage(err),
	})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// permissionBody builds the refusal payload in the caller's language.
func permissionBody(r *http.Request, pe *domain.PermissionError) JSONError {
	orgLocale := ""
	if org := auth.GetOrganization(r.Context()); org != nil {
		orgLocale = org.Locale
	}
	tag := locale.Match(r.Header.Get("Accept-Language"), orgLocale)

	limit, used := pe.Limit, pe.Used
	return JSONError{
		Error:       string(pe.Reason),
		Message:     locale.PermissionMessage(tag, pe.Reason),
		Limit:       &limit,
		Used:        &used,
		Action:      string(pe.Action),
		RedirectURL: RedirectURLFor(pe.Action),
	}
}

// RedirectURLFor returns the page where the user can carry out the action.
func RedirectURLFor(action domain.RemediationAction) string {
	switch action {
	case domain.ActionUpgradePlan:
		return "/settings/billing?upgrade=1"
	case domain.ActionStartSubscription:
		return "/pricing"
	case domain.ActionUpdatePayment, domain.ActionReactivateSubscription:
		return "/settings/billing"
	}
	return ""
}

// NotFoundResponse is a convenience wrapper for 404 errors.
func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	err := domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found")
	ErrorResponse(w, r, logger, err)
}

// UnauthorizedResponse is a convenience wrapper for 401 errors.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	err := domain.Errorf(domain.EUNAUTHORIZED, "", "Authentication required")
	ErrorResponse(w, r, logger, err)
}

// InternalErrorResponse logs the error and returns a generic 500 response.
// The underlying error details are hidden from the user.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	wrappedErr := domain.Internal(err, "", "An unexpected error occurred")
	ErrorResponse(w, r, logger, wrappedErr)
}

// logError logs the error with appropriate level based on status code.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}

	// Add operation if present
	if op != "" {
		attrs = append(attrs, "op", op)
	}
	if id := auth.RequestID(r.Context()); id != "" {
		attrs = append(attrs, "request_id", id)
	}

	// 5xx are server-side issues, 4xx are expected client errors
	if status >= 500 {
		logger.Error("Server error", attrs...)
	} else if status >= 400 {
		logger.Info("Client error", attrs...)
	}
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
