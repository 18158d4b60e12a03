package models

import (
	"context"
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorUnavailable     ErrorKind = "unavailable"
	ErrorRateLimited     ErrorKind = "rate_limited"
	ErrorTimeout         ErrorKind = "timeout"
	ErrorCircuitOpen     ErrorKind = "circuit_open"
	ErrorInvalidResponse ErrorKind = "invalid_response"
	ErrorCancelled       ErrorKind = "cancelled"
	ErrorInternal        ErrorKind = "internal"
)

var (
	ErrUnavailable     = errors.New("networked path unavailable")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrTimeout         = errors.New("networked call timed out")
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrInvalidResponse = errors.New("invalid response from completion client")
)

// RouteError wraps a pipeline failure with the category used for fallback.
type RouteError struct {
	Kind     ErrorKind
	Route    ProcessingRoute
	Attempts int
	Err      error
}

func (e *RouteError) Error() string {
	if e == nil {
		return "route error"
	}
	msg := fmt.Sprintf("%s on %s route", e.Kind, e.Route)
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RouteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf maps an error to its category. Unrecognised errors raised on the
// networked path count as unavailability.
func KindOf(err error) ErrorKind {
	var routeErr *RouteError
	if errors.As(err, &routeErr) && routeErr.Kind != "" {
		return routeErr.Kind
	}
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return ErrorCancelled
	case errors.Is(err, ErrRateLimited):
		return ErrorRateLimited
	case errors.Is(err, ErrCircuitOpen):
		return ErrorCircuitOpen
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout
	case errors.Is(err, ErrInvalidResponse):
		return ErrorInvalidResponse
	default:
		return ErrorUnavailable
	}
}

// IsRetryable reports whether another attempt on the networked path may succeed.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrorTimeout, ErrorCircuitOpen, ErrorInvalidResponse, ErrorUnavailable:
		return true
	default:
		return false
	}
}
