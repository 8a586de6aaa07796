// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime statistics for ringlog. Plain atomic counters: the write path
// must stay contention-free, so there are no locks and no label lookups
// here. Export to Prometheus happens through the collector in
// prometheus.go, pull-style.

package control

import "sync/atomic"

// Stats aggregates library counters. All methods are safe for concurrent
// use from any thread.
type Stats struct {
	recordsWritten atomic.Uint64
	bytesWritten   atomic.Uint64
	recordsMerged  atomic.Uint64
	bytesMerged    atomic.Uint64
	mergeCycles    atomic.Uint64
	entriesSkipped atomic.Uint64
	framingDropped atomic.Uint64
	dumps          atomic.Uint64
	dumpErrors     atomic.Uint64
}

// NewStats returns an empty registry.
func NewStats() *Stats {
	return &Stats{}
}

// IncWrite accounts one accepted record of n framed bytes.
func (s *Stats) IncWrite(n int) {
	s.recordsWritten.Add(1)
	s.bytesWritten.Add(uint64(n))
}

// AddMerged accounts records folded into the merged ring.
func (s *Stats) AddMerged(records, bytes int) {
	s.recordsMerged.Add(uint64(records))
	s.bytesMerged.Add(uint64(bytes))
}

// IncMergeCycle accounts one coordinator cycle.
func (s *Stats) IncMergeCycle() {
	s.mergeCycles.Add(1)
}

// IncEntrySkipped accounts an entry skipped because its owner was mid-write.
func (s *Stats) IncEntrySkipped() {
	s.entriesSkipped.Add(1)
}

// AddFramingDropped accounts snapshot bytes dropped as truncated framing.
func (s *Stats) AddFramingDropped(n int) {
	s.framingDropped.Add(uint64(n))
}

// IncDump accounts one successful dump.
func (s *Stats) IncDump() {
	s.dumps.Add(1)
}

// IncDumpError accounts one failed dump.
func (s *Stats) IncDumpError() {
	s.dumpErrors.Add(1)
}

// StatsSnapshot is a point-in-time copy of all counters.
type StatsSnapshot struct {
	RecordsWritten uint64
	BytesWritten   uint64
	RecordsMerged  uint64
	BytesMerged    uint64
	MergeCycles    uint64
	EntriesSkipped uint64
	FramingDropped uint64
	Dumps          uint64
	DumpErrors     uint64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		RecordsWritten: s.recordsWritten.Load(),
		BytesWritten:   s.bytesWritten.Load(),
		RecordsMerged:  s.recordsMerged.Load(),
		BytesMerged:    s.bytesMerged.Load(),
		MergeCycles:    s.mergeCycles.Load(),
		EntriesSkipped: s.entriesSkipped.Load(),
		FramingDropped: s.framingDropped.Load(),
		Dumps:          s.dumps.Load(),
		DumpErrors:     s.dumpErrors.Load(),
	}
}
