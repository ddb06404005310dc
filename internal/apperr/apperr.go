// Package apperr defines the error value exchanged between the data adapters
// and the HTTP layer: a human-readable message plus the status code it maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure with an HTTP-style status code attached.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New creates an Error with an explicit status.
func New(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

// Newf is New with fmt-style formatting.
func Newf(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports that upstream explicitly matched nothing for the query.
// The upstream contract treats this as a client error.
func NotFound(msg string) *Error {
	return New(http.StatusBadRequest, msg)
}

// Internal reports a generic failure with the default status.
func Internal(msg string) *Error {
	return New(http.StatusInternalServerError, msg)
}

// StatusOf extracts the status code from err, defaulting to 500 for errors
// that carry none.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}
