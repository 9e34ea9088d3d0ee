package moderation

import "errors"

var (
	// ErrCircuitOpen is returned without calling the service while the breaker is open
	ErrCircuitOpen = errors.New("moderation circuit breaker open")

	// ErrUnexpectedStatus is returned for non-2xx responses that are not retried
	ErrUnexpectedStatus = errors.New("moderation service returned unexpected status")

	// ErrMalformedVerdict is returned when the reply cannot be read as a verdict
	ErrMalformedVerdict = errors.New("malformed moderation verdict")
)
