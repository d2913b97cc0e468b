// Package apperrors defines the platform error taxonomy. Every API-facing
// failure carries a stable code string so clients can branch on it without
// parsing messages.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping and retry policy
type Kind int

const (
	KindValidation Kind = iota // malformed/missing input, never retried
	KindAuth                   // missing/invalid credentials or signature
	KindForbidden              // authenticated but insufficient role
	KindNotFound               // unknown entity, including cross-tenant lookups
	KindConflict               // duplicate name, already-terminal transition
	KindQuotaExceeded          // plan limit reached
	KindSubstrate              // execution substrate unreachable or command failed
	KindTimeout                // readiness probe exceeded its budget
	KindUnavailable            // required server-side configuration missing
)

// Error is a classified platform error
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a stable code
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a classified error
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Validation is shorthand for a KindValidation error
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// NotFound is shorthand for a KindNotFound error
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// Conflict is shorthand for a KindConflict error
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// IsKind reports whether err is a platform error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus maps an error to its response status code.
// Unclassified errors are treated as internal failures.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindQuotaExceeded:
		return http.StatusPaymentRequired
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout, KindSubstrate:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Code extracts the stable error code, or "internal_error" for unclassified errors
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}
