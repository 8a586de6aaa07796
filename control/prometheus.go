// File: control/prometheus.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus bridge for the statistics registry. The collector reads the
// atomic counters at scrape time; registering it is optional and has no
// effect on capture behavior.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

var _ prometheus.Collector = (*statsCollector)(nil)

type statsCollector struct {
	stats *Stats

	recordsWritten *prometheus.Desc
	bytesWritten   *prometheus.Desc
	recordsMerged  *prometheus.Desc
	bytesMerged    *prometheus.Desc
	mergeCycles    *prometheus.Desc
	entriesSkipped *prometheus.Desc
	framingDropped *prometheus.Desc
	dumps          *prometheus.Desc
	dumpErrors     *prometheus.Desc
}

// NewCollector wraps a Stats registry as a prometheus.Collector.
func NewCollector(s *Stats) prometheus.Collector {
	return &statsCollector{
		stats: s,
		recordsWritten: prometheus.NewDesc(
			"ringlog_records_written_total",
			"Total records accepted on the write path",
			nil, nil,
		),
		bytesWritten: prometheus.NewDesc(
			"ringlog_bytes_written_total",
			"Total framed bytes written into per-thread rings",
			nil, nil,
		),
		recordsMerged: prometheus.NewDesc(
			"ringlog_records_merged_total",
			"Total records folded into the merged ring",
			nil, nil,
		),
		bytesMerged: prometheus.NewDesc(
			"ringlog_bytes_merged_total",
			"Total framed bytes folded into the merged ring",
			nil, nil,
		),
		mergeCycles: prometheus.NewDesc(
			"ringlog_merge_cycles_total",
			"Total merge coordinator cycles",
			nil, nil,
		),
		entriesSkipped: prometheus.NewDesc(
			"ringlog_entries_skipped_total",
			"Total per-thread entries skipped while their owner was writing",
			nil, nil,
		),
		framingDropped: prometheus.NewDesc(
			"ringlog_framing_dropped_bytes_total",
			"Total snapshot bytes dropped as truncated record framing",
			nil, nil,
		),
		dumps: prometheus.NewDesc(
			"ringlog_dumps_total",
			"Total successful dumps",
			nil, nil,
		),
		dumpErrors: prometheus.NewDesc(
			"ringlog_dump_errors_total",
			"Total dumps that failed at the destination",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recordsWritten
	ch <- c.bytesWritten
	ch <- c.recordsMerged
	ch <- c.bytesMerged
	ch <- c.mergeCycles
	ch <- c.entriesSkipped
	ch <- c.framingDropped
	ch <- c.dumps
	ch <- c.dumpErrors
}

// Collect implements prometheus.Collector.
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.recordsWritten, snap.RecordsWritten)
	counter(c.bytesWritten, snap.BytesWritten)
	counter(c.recordsMerged, snap.RecordsMerged)
	counter(c.bytesMerged, snap.BytesMerged)
	counter(c.mergeCycles, snap.MergeCycles)
	counter(c.entriesSkipped, snap.EntriesSkipped)
	counter(c.framingDropped, snap.FramingDropped)
	counter(c.dumps, snap.Dumps)
	counter(c.dumpErrors, snap.DumpErrors)
}
