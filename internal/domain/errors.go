package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrInsufficientCred = errors.New("insufficient credits")
	ErrDuplicateEmail   = errors.New("email already registered")

	// Upstream provider taxonomy. Adapters wrap these so the HTTP layer can
	// map a failure to the right status without knowing which vendor the
	// orchestrator talked to.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	ErrUpstreamConfig      = errors.New("upstream configuration rejected")
	ErrUpstreamTimeout     = errors.New("upstream timed out")
	ErrGenerationRejected  = errors.New("generation rejected by provider")
)
