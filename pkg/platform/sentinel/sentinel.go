package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and caches return these
// (optionally wrapped) so services can translate them into API responses.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store or cache
// - ErrExpired: cached entry or token has expired
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
