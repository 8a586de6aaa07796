// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values and error handling conventions for the ringlog library.

package api

import "fmt"

// Common errors used across the library.
//
// Overflow of a bounded ring is deliberately absent from this list:
// discarding the oldest captured bytes is normal operation, never a failure.
var (
	// ErrPayloadTooLarge reports a payload whose framed record can never fit
	// the configured ring capacity, even into an empty ring.
	ErrPayloadTooLarge = fmt.Errorf("payload too large for ring capacity")

	// ErrShutdown reports an operation attempted after Close.
	ErrShutdown = fmt.Errorf("ringlog is shut down")

	// ErrWorkerFailed reports that the merge worker has stopped after a panic.
	// Dumps do not silently return stale data once the worker is dead.
	ErrWorkerFailed = fmt.Errorf("merge worker failed")

	// ErrInvalidConfig reports unusable construction parameters.
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
)
