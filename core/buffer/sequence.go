// File: core/buffer/sequence.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide monotonic ordering-key source. Keys are hybrid wall-clock
// values: each key is max(previous+1, unix nanoseconds), so they stay
// strictly increasing even when the system clock stalls or steps backwards,
// while still reading as timestamps in the common case.

package buffer

import (
	"sync/atomic"
	"time"
)

// SequenceSource issues strictly increasing uint64 keys comparable across
// threads. The zero value is not usable; construct with NewSequenceSource.
type SequenceSource struct {
	last atomic.Uint64
}

// NewSequenceSource returns a source seeded below the current clock so the
// first key is a plain timestamp.
func NewSequenceSource() *SequenceSource {
	return &SequenceSource{}
}

// Next returns the next key. Safe for concurrent use; the CAS loop retries
// only when another thread claimed a key in the same instant.
func (s *SequenceSource) Next() uint64 {
	for {
		prev := s.last.Load()
		next := uint64(time.Now().UnixNano())
		if next <= prev {
			next = prev + 1
		}
		if s.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// Current returns the most recently issued key without consuming one.
// Every future Next call on any thread returns a strictly larger value,
// which makes Current usable as an observed-through marker.
func (s *SequenceSource) Current() uint64 {
	return s.last.Load()
}
