package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so callers can classify them without knowing the backend.
//
// - ErrNotFound: entry does not exist, or has expired, in a store
// - ErrUnavailable: dependency is refusing calls for now (open circuit)
//
// For invalid input, use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
