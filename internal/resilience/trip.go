package resilience

import (
	"context"
	"errors"
)

// StatusCoder is implemented by upstream API errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Trips reports whether err says something about the upstream's health.
// Cancellation by the caller never trips. Errors carrying an HTTP status trip
// only for server-side statuses; everything else (network failures, deadline
// exceeded, undecodable bodies) trips.
func Trips(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return IsServerStatus(sc.HTTPStatus())
	}
	return true
}

// IsServerStatus reports whether an HTTP status points at the upstream rather
// than at the request.
func IsServerStatus(code int) bool {
	switch {
	case code == 408, code == 429:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}
