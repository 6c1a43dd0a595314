package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the failure type services return across the handler boundary.
// Field is set for form-level failures so clients can attach the message
// to a specific input.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func ValidationField(field, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Field: field}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Conflict(field, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Field: field}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// Upstream wraps a failed data-backend call.
func Upstream(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "upstream error", cause: err}
}

// Upload wraps a failed image-store call.
func Upload(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "image upload failed", cause: err}
}

// As extracts an *Error from err, if there is one in the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	ae, ok := As(err)
	return ok && ae.Status == http.StatusNotFound
}
