package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and boundary clients
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store or registry
// - ErrConflict: concurrent write lost
// - ErrInvalidState: resource in wrong state for the requested operation
// - ErrPaymentFailed: outbound push payment was rejected by the recipient side
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state")
	ErrPaymentFailed = errors.New("payment failed")
	ErrUnavailable   = errors.New("unavailable")
)
