// File: core/buffer/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded byte ring with overwrite-on-wrap semantics. The leaf component of
// ringlog: no concurrency awareness, owned exclusively by its writer.

package buffer

import (
	"github.com/momentics/ringlog/api"
)

// Ensure compile-time interface compliance.
var _ api.ByteRing = (*Ring)(nil)

// Ring is a fixed-capacity byte buffer. When a write reaches the end of the
// storage the cursor rewinds to offset zero and new content overwrites the
// oldest bytes, so memory consumption never exceeds the configured capacity.
type Ring struct {
	data   []byte
	cursor int  // next write offset
	full   bool // set once the cursor has wrapped at least once
}

// NewRing allocates a ring of the given capacity in bytes.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("ring capacity must be positive")
	}
	return &Ring{data: make([]byte, capacity)}
}

// Write appends p at the cursor, wrapping as needed. Bytes overwritten by
// wraparound are permanently lost and never reported as valid again.
// Overflow is normal operation, so Write has no error return.
func (r *Ring) Write(p []byte) {
	c := len(r.data)
	if len(p) >= c {
		// Only the last capacity bytes of p can survive.
		copy(r.data, p[len(p)-c:])
		r.cursor = 0
		r.full = true
		return
	}
	n := copy(r.data[r.cursor:], p)
	if n < len(p) {
		copy(r.data, p[n:])
		r.cursor = len(p) - n
		r.full = true
		return
	}
	r.cursor += len(p)
	if r.cursor == c {
		r.cursor = 0
		r.full = true
	}
}

// Snapshot returns an oldest-first contiguous copy of all valid bytes.
// When the ring has wrapped the logical start is the cursor, otherwise
// offset zero. Record boundaries are not this layer's concern; a snapshot
// of a wrapped ring may begin mid-record.
func (r *Ring) Snapshot() []byte {
	if !r.full {
		out := make([]byte, r.cursor)
		copy(out, r.data[:r.cursor])
		return out
	}
	out := make([]byte, len(r.data))
	n := copy(out, r.data[r.cursor:])
	copy(out[n:], r.data[:r.cursor])
	return out
}

// Wrapped reports whether eviction has occurred since the last Clear.
func (r *Ring) Wrapped() bool {
	return r.full
}

// Clear resets the ring to empty without deallocating storage.
func (r *Ring) Clear() {
	r.cursor = 0
	r.full = false
}

// Len returns the number of currently valid bytes.
func (r *Ring) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.cursor
}

// Cap returns the fixed capacity in bytes.
func (r *Ring) Cap() int {
	return len(r.data)
}
