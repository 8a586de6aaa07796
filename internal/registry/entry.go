// File: internal/registry/entry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Entry is one thread's private capture buffer plus the merge-side state the
// coordinator keeps about it. The entry carries a tri-state latch (idle,
// writing, collecting) so the hot write path is a single uncontended CAS:
// entries are written by exactly one thread, and the collector only takes
// the latch for the microseconds of a snapshot copy.

package registry

import (
	"runtime"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/ringlog/core/buffer"
	"github.com/momentics/ringlog/protocol"
)

const (
	entryIdle uint32 = iota
	entryWriting
	entryCollecting
)

// Entry associates a thread id with its private bounded ring.
// Entries persist for the lifetime of the registry even after their thread
// exits, so the thread's last-written data can still be merged.
type Entry struct {
	id      uint64
	state   atomic.Uint32
	ring    *buffer.Ring
	scratch []byte

	// Merge-side state, owned by the coordinator and guarded by its lock:
	// never touched by writers.
	watermark uint64
	observed  uint64
	pending   *queue.Queue
}

func newEntry(id uint64, bufSize int) *Entry {
	return &Entry{
		id:      id,
		ring:    buffer.NewRing(bufSize),
		pending: queue.New(),
	}
}

// ID returns the owning thread identity.
func (e *Entry) ID() uint64 { return e.id }

// BeginWrite takes the latch for the owning thread. Uncontended in the
// common case; spins through the collector's brief snapshot window or a
// migrated goroutine's in-flight write.
func (e *Entry) BeginWrite() {
	for !e.state.CompareAndSwap(entryIdle, entryWriting) {
		runtime.Gosched()
	}
}

// EndWrite releases the write latch.
func (e *Entry) EndWrite() {
	e.state.Store(entryIdle)
}

// Append frames the payload with its ordering key and writes it into the
// ring. Must be called between BeginWrite and EndWrite.
func (e *Entry) Append(key uint64, payload []byte) int {
	e.scratch = protocol.AppendRecord(e.scratch[:0], key, payload)
	e.ring.Write(e.scratch)
	return len(e.scratch)
}

// TryCollect attempts to take the latch for the collector. Returns false
// when the owner is mid-write; the collector skips the entry until its next
// cycle rather than blocking the writer.
func (e *Entry) TryCollect() bool {
	return e.state.CompareAndSwap(entryIdle, entryCollecting)
}

// Collect takes the collector latch, spinning through in-flight writes.
// Used where skipping is not an option, e.g. Clear.
func (e *Entry) Collect() {
	for !e.state.CompareAndSwap(entryIdle, entryCollecting) {
		runtime.Gosched()
	}
}

// EndCollect releases the collector latch.
func (e *Entry) EndCollect() {
	e.state.Store(entryIdle)
}

// SnapshotRing copies the ring content. Must be called under the collector
// latch. The second return reports whether the snapshot may begin
// mid-record (the ring has wrapped).
func (e *Entry) SnapshotRing() ([]byte, bool) {
	return e.ring.Snapshot(), e.ring.Wrapped()
}

// ClearRing empties the ring. Must be called under the collector latch.
func (e *Entry) ClearRing() {
	e.ring.Clear()
}

// Watermark returns the largest key already handed to the merge stage.
func (e *Entry) Watermark() uint64 { return e.watermark }

// SetWatermark advances the merge watermark.
func (e *Entry) SetWatermark(k uint64) { e.watermark = k }

// Observed returns the observed-through marker: every future record from
// this entry carries a key strictly greater than it.
func (e *Entry) Observed() uint64 { return e.observed }

// SetObserved records the observed-through marker for this entry.
func (e *Entry) SetObserved(k uint64) { e.observed = k }

// Pending returns the FIFO of decoded records awaiting the merge frontier.
func (e *Entry) Pending() *queue.Queue { return e.pending }

// ResetMergeState drops pending records and rewinds the watermark. Owned by
// the coordinator, called under its lock during Clear.
func (e *Entry) ResetMergeState(observed uint64) {
	e.watermark = 0
	e.observed = observed
	e.pending = queue.New()
}
