// Package apperr defines the stable, machine-readable error taxonomy every
// API response carries alongside its human message.
package apperr

import "net/http"

type Kind string

const (
	Validation     Kind = "VALIDATION_ERROR"
	Unauthorized   Kind = "UNAUTHORIZED"
	Forbidden      Kind = "FORBIDDEN"
	NotFound       Kind = "NOT_FOUND"
	CountyConflict Kind = "COUNTY_CONFLICT"
	Config         Kind = "CONFIG_ERROR"
	RateLimited    Kind = "RATE_LIMITED"
	Internal       Kind = "INTERNAL_ERROR"
)

// Error is a domain error with a stable code. Details, when set, is included
// verbatim in the JSON response (e.g. the list of conflicting counties).
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WithDetails(kind Kind, message string, details interface{}) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// HTTPStatus maps an error kind onto its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation, CountyConflict:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// From converts any error into an *Error, wrapping unknown errors as Internal
// without leaking their message to the caller.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: Internal, Message: "Something went wrong"}
}
