package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"      // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized" // Authentication required
	EFORBIDDEN    = "forbidden"    // Permission denied
	ENOTFOUND     = "not_found"    // Resource not found
	ECONFLICT     = "conflict"     // Resource conflict (e.g., already sent)
	ERATELIMIT    = "rate_limit"   // Rate limit exceeded
	EINTERNAL     = "internal"     // Internal server error
	EPAYMENT      = "payment"      // Payment required
)

// Error is an application error. Code selects the HTTP status, Message is
// shown to the caller unless Code is EINTERNAL, and Err keeps the cause for
// the logs.
type Error struct {
	Code    string
	Op      string // e.g. "quote.mark_sent"
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// internalMessage replaces the message of EINTERNAL errors in responses.
const internalMessage = "An internal error occurred. Please try again later."

// asError finds the first *Error in err's chain.
func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// ErrorCode returns the code of the first *Error in the chain. Errors without
// one are internal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the message safe to show the caller.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp returns the failing operation, if recorded.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Conflict reports a request that clashes with the current state, such as a
// second cadence run while one is in flight.
func Conflict(op, message string) *Error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Internal wraps an unexpected failure. Its message is never shown to callers.
func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// =============================================================================
// Permission errors
// =============================================================================

// PermissionError is returned when an organization is not allowed to perform
// an action because of its subscription, trial or usage state. It carries the
// machine-readable reason and the remediation the caller should offer.
type PermissionError struct {
	Reason PermissionReason
	Action RemediationAction
	Tier   Tier
	Limit  int
	Used   int
	Err    *Error
}

func (e *PermissionError) Error() string {
	return e.Err.Error()
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// NewPermissionError builds a PermissionError whose error code follows the reason.
func NewPermissionError(op string, reason PermissionReason, action RemediationAction, tier Tier, limit, used int) *PermissionError {
	return &PermissionError{
		Reason: reason,
		Action: action,
		Tier:   tier,
		Limit:  limit,
		Used:   used,
		Err: &Error{
			Code:    reason.ErrorCode(),
			Op:      op,
			Message: reason.DefaultMessage(),
		},
	}
}

// AsPermissionError reports whether err wraps a PermissionError.
func AsPermissionError(err error) (*PermissionError, bool) {
	var pe *PermissionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
