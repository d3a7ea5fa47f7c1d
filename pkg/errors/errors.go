package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a classified failure with HTTP awareness. The code tells
// callers which of the three outcome classes they are looking at: the request
// never completed (TRANSPORT_FAILURE), the server replied but rejected the
// operation (REJECTED and its NOT_FOUND subtype), or the payload could not be
// used (VALIDATION_ERROR client-side, DECODE_ERROR for malformed bodies).
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the failure taxonomy.
var (
	ErrTransport    = New("TRANSPORT_FAILURE", 0, "could not reach the server")
	ErrRejected     = New("REJECTED", http.StatusBadRequest, "operation rejected by the server")
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrDecode       = New("DECODE_ERROR", http.StatusBadGateway, "could not decode server response")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsCode reports whether err carries the given classification code.
func IsCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// IsTransport reports whether the request never completed. Callers must not
// present these near a form the way they present rejections.
func IsTransport(err error) bool { return IsCode(err, ErrTransport.Code) }

// IsRejected reports whether the server replied and refused the operation.
// NOT_FOUND and CONFLICT count as rejections for display purposes.
func IsRejected(err error) bool {
	return IsCode(err, ErrRejected.Code) || IsCode(err, ErrNotFound.Code) || IsCode(err, ErrConflict.Code)
}

// IsNotFound reports whether the operation referenced a missing identity.
func IsNotFound(err error) bool { return IsCode(err, ErrNotFound.Code) }
