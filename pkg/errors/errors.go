package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error that knows its HTTP status. Code is the stable
// machine readable identifier clients switch on.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New declares an error kind.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Error kinds returned by the services.
var (
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized      = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict          = New("CONFLICT", http.StatusConflict, "conflict")
	ErrIntegrityConflict = New("INTEGRITY_CONFLICT", http.StatusConflict, "record is still referenced")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Clone copies a kind, optionally replacing the message.
func Clone(kind *Error, message string) *Error {
	if kind == nil {
		return nil
	}
	clone := *kind
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Wrap returns a kind carrying err as its cause.
func Wrap(err error, kind *Error, message string) *Error {
	wrapped := Clone(kind, message)
	if wrapped == nil {
		wrapped = Clone(ErrInternal, message)
	}
	wrapped.Err = err
	return wrapped
}

// Internal wraps an infrastructure failure as a 500.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal, message)
}

// Invalid wraps a binding or validation failure as a 400.
func Invalid(err error, message string) *Error {
	return Wrap(err, ErrValidation, message)
}

// Is reports whether err carries the same code as kind.
func Is(err error, kind *Error) bool {
	if err == nil || kind == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == kind.Code
	}
	return false
}

// FromError normalises any error into an *Error. Unknown errors become
// internal errors with the generic message so causes never leak to clients.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, "")
}
