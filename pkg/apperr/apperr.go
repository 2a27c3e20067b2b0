// Package apperr defines the error taxonomy shared by all services, combining
// typed error codes with pkg/errors for stack trace support.
package apperr

import (
	stderrors "errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Code classifies an error for HTTP mapping and retry semantics.
type Code string

const (
	CodeInvalidArgument Code = "invalid_argument"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeUnavailable     Code = "unavailable"
	CodeUnauthorized    Code = "unauthorized"
	CodeForbidden       Code = "forbidden"
	CodeUpstream        Code = "upstream"
)

// Error is a classified error with a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a classified error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, annotating the cause with a stack trace.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: pkgerrors.WithStack(err)}
}

// CodeOf extracts the code from an error tree. Unclassified errors are treated
// as upstream failures (safe to retry from the client).
func CodeOf(err error) Code {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUpstream
}

// IsCode reports whether the error tree carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the user-visible message for an error.
func MessageOf(err error) string {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "Server error"
}

// HTTPStatus maps an error to its HTTP status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeUnavailable:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
