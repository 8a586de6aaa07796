// Package api
// Author: momentics <momentics@gmail.com>
//
// Bounded byte ring contract shared by per-thread buffers and the merged view.

package api

// ByteRing is a fixed-capacity byte store with overwrite-on-wrap semantics.
// Writes never fail; when capacity is exceeded the oldest bytes are
// silently discarded. Implementations are not required to be thread-safe;
// ownership is exclusive to whichever entity writes into the ring.
type ByteRing interface {
	// Write appends p, wrapping and discarding oldest bytes as needed.
	Write(p []byte)
	// Snapshot returns a contiguous oldest-first copy of all valid bytes.
	Snapshot() []byte
	// Wrapped reports whether eviction has occurred, i.e. whether the
	// snapshot may begin mid-record.
	Wrapped() bool
	// Clear resets the ring to empty without releasing storage.
	Clear()
	// Len returns the number of currently valid bytes.
	Len() int
	// Cap returns the fixed capacity in bytes.
	Cap() int
}
