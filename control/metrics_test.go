// File: control/metrics_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.IncWrite(100)
	s.IncWrite(50)
	s.AddMerged(2, 150)
	s.IncMergeCycle()
	s.IncEntrySkipped()
	s.AddFramingDropped(7)
	s.IncDump()
	s.IncDumpError()

	snap := s.Snapshot()
	if snap.RecordsWritten != 2 || snap.BytesWritten != 150 {
		t.Errorf("writes = (%d, %d), want (2, 150)", snap.RecordsWritten, snap.BytesWritten)
	}
	if snap.RecordsMerged != 2 || snap.BytesMerged != 150 {
		t.Errorf("merged = (%d, %d), want (2, 150)", snap.RecordsMerged, snap.BytesMerged)
	}
	if snap.MergeCycles != 1 || snap.EntriesSkipped != 1 {
		t.Errorf("cycles/skips = (%d, %d), want (1, 1)", snap.MergeCycles, snap.EntriesSkipped)
	}
	if snap.FramingDropped != 7 {
		t.Errorf("FramingDropped = %d, want 7", snap.FramingDropped)
	}
	if snap.Dumps != 1 || snap.DumpErrors != 1 {
		t.Errorf("dumps = (%d, %d), want (1, 1)", snap.Dumps, snap.DumpErrors)
	}
}

func TestCollectorExportsAllCounters(t *testing.T) {
	s := NewStats()
	s.IncWrite(64)
	s.IncDump()

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(NewCollector(s))

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 9 {
		t.Fatalf("gathered %d metric families, want 9", len(families))
	}
	values := make(map[string]float64, len(families))
	for _, mf := range families {
		values[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	if values["ringlog_records_written_total"] != 1 {
		t.Errorf("records_written = %v, want 1", values["ringlog_records_written_total"])
	}
	if values["ringlog_bytes_written_total"] != 64 {
		t.Errorf("bytes_written = %v, want 64", values["ringlog_bytes_written_total"])
	}
	if values["ringlog_dumps_total"] != 1 {
		t.Errorf("dumps = %v, want 1", values["ringlog_dumps_total"])
	}
}
