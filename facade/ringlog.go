// File: facade/ringlog.go
// Unified facade for the ringlog library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RingFile is the public entry point: it bundles the sequence source, the
// per-thread buffer registry, and the merge coordinator, and exposes the
// write/dump/clear/close surface. Writing to disk synchronously would
// change the very timing that causes the bugs this tool exists to catch,
// so all capture stays in bounded memory; content reaches the destination
// only when a dump is requested.

package facade

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/ringlog/api"
	"github.com/momentics/ringlog/control"
	"github.com/momentics/ringlog/core/buffer"
	"github.com/momentics/ringlog/internal/concurrency"
	"github.com/momentics/ringlog/internal/merge"
	"github.com/momentics/ringlog/internal/registry"
	"github.com/momentics/ringlog/protocol"
)

// Config holds parameters immutable per run, except the flush interval
// which can be changed later through the Control interface.
type Config struct {
	BufSize       int           // Capacity per ring in bytes; also the merged ring's capacity
	Destination   io.Writer     // Dump target; defaults to stdout
	FlushInterval time.Duration // Merge worker cycle interval
	ShardCount    int           // Registry shards for thread-id lookup
	PinCPU        int           // CPU core for the merge worker; -1 disables pinning
	Logger        *zap.Logger   // Lifecycle/diagnostic logging; defaults to a nop logger
	Stats         *control.Stats
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		BufSize:       4 << 20, // 4 MiB per thread
		Destination:   os.Stdout,
		FlushInterval: 10 * time.Millisecond,
		ShardCount:    16,
		PinCPU:        -1,
	}
}

// RingFile keeps each thread's log content in a private bounded ring and
// reconstructs one time-ordered view across all threads on demand. When the
// observed program hangs, the captured tail of every thread's activity can
// still be dumped safely.
type RingFile struct {
	cfg   *Config
	log   *zap.Logger
	stats *control.Stats
	ctrl  *control.ConfigStore

	seq   *buffer.SequenceSource
	reg   *registry.Registry
	coord *merge.Coordinator

	dest   io.Writer
	dumpMu sync.Mutex // serializes dump/clear against each other
	closed atomic.Bool
}

// Ensure RingFile can stand in anywhere an io.Writer sink is expected.
var _ io.Writer = (*RingFile)(nil)

// New constructs a RingFile and starts the merge worker.
func New(cfg *Config) (*RingFile, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BufSize <= protocol.EncodedSize(0) {
		return nil, fmt.Errorf("%w: buf size %d cannot hold a single record",
			api.ErrInvalidConfig, cfg.BufSize)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := cfg.Stats
	if stats == nil {
		stats = control.NewStats()
	}
	dest := cfg.Destination
	if dest == nil {
		dest = os.Stdout
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}

	ctrl := control.NewConfigStore()
	ctrl.SetConfig(map[string]any{control.KeyFlushInterval: interval})

	f := &RingFile{
		cfg:   cfg,
		log:   logger,
		stats: stats,
		ctrl:  ctrl,
		seq:   buffer.NewSequenceSource(),
		reg:   registry.NewRegistry(cfg.BufSize, cfg.ShardCount),
		dest:  dest,
	}
	f.coord = merge.NewCoordinator(f.reg, f.seq, cfg.BufSize, cfg.PinCPU, ctrl, stats, logger)
	go f.coord.Run()

	logger.Info("ringlog initialized",
		zap.Int("buf_size", cfg.BufSize),
		zap.Duration("flush_interval", interval),
	)
	return f, nil
}

// WriteAll records the payload into the calling thread's private ring.
// Never blocks on other threads: the only synchronization is the entry's
// own latch, contended solely during the collector's brief snapshot copy.
// Overflow discards the thread's oldest records silently.
func (f *RingFile) WriteAll(p []byte) error {
	return f.WriteAllTo(concurrency.CurrentThreadID(), p)
}

// WriteAllTo records the payload under an explicit thread identity.
// Tests use synthetic identities to drive deterministic interleavings.
func (f *RingFile) WriteAllTo(id uint64, p []byte) error {
	if f.closed.Load() {
		return api.ErrShutdown
	}
	if protocol.EncodedSize(len(p)) > f.cfg.BufSize {
		return fmt.Errorf("%w: %d bytes framed, ring capacity %d",
			api.ErrPayloadTooLarge, protocol.EncodedSize(len(p)), f.cfg.BufSize)
	}
	e := f.reg.Acquire(id)
	e.BeginWrite()
	n := e.Append(f.seq.Next(), p)
	e.EndWrite()
	f.stats.IncWrite(n)
	return nil
}

// Write implements io.Writer so a RingFile can be handed to logging
// frameworks as an output. Each call captures one record.
func (f *RingFile) Write(p []byte) (int, error) {
	if err := f.WriteAll(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Dump flushes the merge coordinator and writes the globally ordered
// payload stream to the configured destination. Destination errors surface
// unmodified; no retry is attempted.
func (f *RingFile) Dump() error {
	return f.DumpTo(f.dest)
}

// DumpTo dumps to an alternative destination, e.g. a freshly opened file
// when the configured sink is no longer usable.
func (f *RingFile) DumpTo(w io.Writer) error {
	if f.closed.Load() {
		return api.ErrShutdown
	}
	recs, err := f.coord.Collect()
	if err != nil {
		return err
	}
	f.dumpMu.Lock()
	defer f.dumpMu.Unlock()
	for i := range recs {
		if _, err := w.Write(recs[i].Payload); err != nil {
			f.stats.IncDumpError()
			return err
		}
	}
	f.stats.IncDump()
	return nil
}

// Clear resets all per-thread rings and the merged ring to empty. The merge
// worker keeps running. Idempotent.
func (f *RingFile) Clear() error {
	if f.closed.Load() {
		return api.ErrShutdown
	}
	f.dumpMu.Lock()
	defer f.dumpMu.Unlock()
	return f.coord.Clear()
}

// Close stops and joins the merge worker. Subsequent writes, dumps, and
// clears are rejected with api.ErrShutdown. Idempotent.
func (f *RingFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	f.coord.Stop()
	f.log.Info("ringlog closed")
	return nil
}

// Stats returns a point-in-time copy of the library counters.
func (f *RingFile) Stats() control.StatsSnapshot {
	return f.stats.Snapshot()
}

// Control returns the dynamic configuration store; setting
// control.KeyFlushInterval there retunes the merge worker at runtime.
func (f *RingFile) Control() *control.ConfigStore {
	return f.ctrl
}
