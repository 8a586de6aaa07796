// File: internal/merge/coordinator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Merge coordinator: a background worker that continuously folds every
// per-thread ring into one bounded, globally key-ordered merged ring, so a
// dump is served from already-consistent state instead of racing live
// writers.
//
// Ordering argument, in brief: keys are issued under the entry's write
// latch, so once the collector latches an entry and reads the sequence
// clock, every future record of that entry carries a larger key. The
// frontier -- the minimum observed-through marker across entries, capped by
// the clock at cycle start -- therefore bounds the keys that are still in
// flight anywhere. Pending records at or below the frontier can be merged
// in key order with no risk of a smaller key arriving later.

package merge

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/ringlog/api"
	"github.com/momentics/ringlog/control"
	"github.com/momentics/ringlog/core/buffer"
	"github.com/momentics/ringlog/internal/concurrency"
	"github.com/momentics/ringlog/internal/registry"
	"github.com/momentics/ringlog/protocol"
)

// Coordinator owns the merged ring and all per-entry merge state
// (watermarks, observed-through markers, pending queues). One mutex guards
// that state; the per-thread write paths never take it.
type Coordinator struct {
	reg   *registry.Registry
	seq   *buffer.SequenceSource
	log   *zap.Logger
	stats *control.Stats

	interval atomic.Int64 // cycle interval, nanoseconds

	mu      sync.Mutex
	merged  *buffer.Ring
	scratch []byte
	failure error // latched worker panic; nil while healthy

	pinCPU   int
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
}

// NewCoordinator constructs a coordinator with a merged ring of mergedCap
// bytes. The flush interval is read from cfg and tracks later updates.
func NewCoordinator(reg *registry.Registry, seq *buffer.SequenceSource, mergedCap, pinCPU int,
	cfg *control.ConfigStore, stats *control.Stats, log *zap.Logger) *Coordinator {

	c := &Coordinator{
		reg:    reg,
		seq:    seq,
		log:    log,
		stats:  stats,
		merged: buffer.NewRing(mergedCap),
		pinCPU: pinCPU,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	c.interval.Store(int64(cfg.GetDuration(control.KeyFlushInterval, 10*time.Millisecond)))
	cfg.OnReload(func() {
		c.interval.Store(int64(cfg.GetDuration(control.KeyFlushInterval, 10*time.Millisecond)))
	})
	return c
}

// Run executes the merge loop until Stop. Intended to run on its own
// goroutine. A panic in the loop is latched: subsequent Collect and Clear
// calls fail with api.ErrWorkerFailed instead of quietly serving stale data.
func (c *Coordinator) Run() {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	defer close(c.doneCh)
	defer func() {
		if r := recover(); r != nil {
			c.mu.Lock()
			c.failure = fmt.Errorf("%w: %v", api.ErrWorkerFailed, r)
			c.mu.Unlock()
			c.log.Error("merge worker panicked", zap.Any("panic", r))
		}
	}()

	if err := concurrency.PinCurrentThread(c.pinCPU); err != nil {
		c.log.Warn("merge worker CPU pin failed", zap.Int("cpu", c.pinCPU), zap.Error(err))
	}

	timer := time.NewTimer(c.intervalDur())
	defer timer.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-timer.C:
			c.runCycle()
			timer.Reset(c.intervalDur())
		}
	}
}

// Stop signals the worker and joins it. Bounded work per cycle guarantees
// prompt exit; there is no timeout. Idempotent.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}

func (c *Coordinator) intervalDur() time.Duration {
	return time.Duration(c.interval.Load())
}

// runCycle performs one merge cycle from the worker loop.
func (c *Coordinator) runCycle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return
	}
	c.cycleLocked(false)
}

// Collect flushes the latest state and returns the complete merged view in
// ascending key order: the merged ring's records followed by pending
// records not yet past the frontier. The pending remainder is not consumed;
// it merges into the ring on later cycles.
func (c *Coordinator) Collect() ([]api.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return nil, c.failure
	}
	c.cycleLocked(true)

	recs, dropped := protocol.DecodeStream(c.merged.Snapshot(), !c.merged.Wrapped())
	if dropped > 0 {
		c.stats.AddFramingDropped(dropped)
	}

	var tail []api.Record
	c.reg.Range(func(e *registry.Entry) {
		p := e.Pending()
		for i := 0; i < p.Length(); i++ {
			tail = append(tail, p.Get(i).(api.Record))
		}
	})
	sort.Slice(tail, func(i, j int) bool { return tail[i].Key < tail[j].Key })
	return append(recs, tail...), nil
}

// Clear resets every per-thread ring, all merge state, and the merged ring.
// The worker keeps running.
func (c *Coordinator) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return c.failure
	}
	c.reg.Range(func(e *registry.Entry) {
		e.Collect()
		e.ClearRing()
		e.ResetMergeState(c.seq.Current())
		e.EndCollect()
	})
	c.merged.Clear()
	return nil
}

// cycleLocked snapshots every entry, decodes new records past each entry's
// watermark into its pending queue, then k-way merges pending records up to
// the frontier into the merged ring. Callers hold c.mu.
//
// block selects the collection mode: the worker skips entries whose owner
// is mid-write (they catch up next cycle), while a dump waits out the
// nanoseconds of an in-flight write to not under-report.
func (c *Coordinator) cycleLocked(block bool) {
	startKey := c.seq.Current()

	var entries []*registry.Entry
	c.reg.Range(func(e *registry.Entry) {
		entries = append(entries, e)
		if block {
			e.Collect()
		} else if !e.TryCollect() {
			c.stats.IncEntrySkipped()
			return
		}
		snap, wrapped := e.SnapshotRing()
		e.SetObserved(c.seq.Current())
		e.EndCollect()

		recs, dropped := protocol.DecodeStream(snap, !wrapped)
		if dropped > 0 {
			c.stats.AddFramingDropped(dropped)
		}
		for i := range recs {
			if recs[i].Key > e.Watermark() {
				e.Pending().Add(recs[i])
				e.SetWatermark(recs[i].Key)
			}
		}
	})

	// Entries registered after the cycle started may be missing from
	// entries; capping the frontier at startKey covers them, since any key
	// issued after that point exceeds it.
	frontier := startKey
	for _, e := range entries {
		if obs := e.Observed(); obs < frontier {
			frontier = obs
		}
	}

	mergedRecs, mergedBytes := 0, 0
	for {
		var best *registry.Entry
		var bestKey uint64
		for _, e := range entries {
			if e.Pending().Length() == 0 {
				continue
			}
			r := e.Pending().Peek().(api.Record)
			if r.Key > frontier {
				continue
			}
			if best == nil || r.Key < bestKey {
				best, bestKey = e, r.Key
			}
		}
		if best == nil {
			break
		}
		r := best.Pending().Remove().(api.Record)
		// Records older than the merged ring's retention are written and
		// immediately evicted, which is the intended overflow policy.
		c.scratch = protocol.AppendRecord(c.scratch[:0], r.Key, r.Payload)
		c.merged.Write(c.scratch)
		mergedRecs++
		mergedBytes += len(c.scratch)
	}
	if mergedRecs > 0 {
		c.stats.AddMerged(mergedRecs, mergedBytes)
	}
	c.stats.IncMergeCycle()
}
