package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can decide how to degrade.
//
// - ErrNotFound: record does not exist in the store (or is no longer active)
// - ErrUnavailable: backing store or broker temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
