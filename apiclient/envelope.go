package apiclient

import (
	"net/http"

	apperrors "github.com/entadmin/adminkit/errors"
)

const (
	// CodeTimeout is reported when the request deadline or the caller's
	// context ends the request.
	CodeTimeout = http.StatusRequestTimeout
	// CodeFailure is reported for transport and decode failures.
	CodeFailure = http.StatusInternalServerError

	MessageTimeout = "request timed out"
)

// Envelope is the uniform result of a request. Data is set iff Success;
// Error is set iff not Success.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// OK wraps a decoded payload.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: &data}
}

// Fail builds an unsuccessful envelope. An empty message is replaced with
// "HTTP <code>".
func Fail[T any](code int, message string) Envelope[T] {
	if message == "" {
		message = StatusMessage(code)
	}
	return Envelope[T]{Error: message, Code: code}
}

// Err converts an unsuccessful envelope into an *errors.AppError.
// It returns nil for a successful envelope.
func (e Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	return apperrors.FromStatus(e.Code, e.Error)
}

// Value returns the payload, or the zero value when there is none.
func (e Envelope[T]) Value() T {
	if e.Data == nil {
		var zero T
		return zero
	}
	return *e.Data
}

// TimedOut reports whether the request was aborted by its deadline or by
// cancellation.
func (e Envelope[T]) TimedOut() bool {
	return !e.Success && e.Code == CodeTimeout
}

// Retryable reports whether the failure is worth retrying.
func (e Envelope[T]) Retryable() bool {
	if e.Success {
		return false
	}
	return apperrors.IsRetryable(e.Err())
}

// Map carries a failure across payload types.
func Map[T, U any](e Envelope[T], fn func(T) U) Envelope[U] {
	if !e.Success {
		return Envelope[U]{Error: e.Error, Code: e.Code}
	}
	return OK(fn(e.Value()))
}
