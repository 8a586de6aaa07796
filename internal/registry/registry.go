// File: internal/registry/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sharded, thread-safe registry of per-thread capture buffers.
// Lookup is the only cross-thread synchronization on the write path: a
// shard RLock held for a map read. Creation happens once per thread.

package registry

import (
	"sync"

	"fortio.org/safecast"
)

// Registry maps thread identities to their private buffer entries.
type Registry struct {
	shards  []*regShard
	mask    uint64
	bufSize int
}

type regShard struct {
	mu      sync.RWMutex
	entries map[uint64]*Entry
}

// NewRegistry constructs a registry creating rings of bufSize bytes,
// sharded over shardCount buckets (rounded up to a power of two).
func NewRegistry(bufSize, shardCount int) *Registry {
	n, err := safecast.Conv[uint32](shardCount)
	if err != nil || n == 0 {
		n = 16
	}
	m := nextPowerOfTwo(n)
	shards := make([]*regShard, m)
	for i := range shards {
		shards[i] = &regShard{entries: make(map[uint64]*Entry)}
	}
	return &Registry{
		shards:  shards,
		mask:    uint64(m - 1),
		bufSize: bufSize,
	}
}

// shard picks the bucket for a thread id. Fibonacci hashing spreads the
// mostly-sequential kernel thread ids across shards.
func (r *Registry) shard(id uint64) *regShard {
	return r.shards[(id*0x9E3779B97F4A7C15)>>32&r.mask]
}

// Acquire returns the entry for id, creating it on first use.
func (r *Registry) Acquire(id uint64) *Entry {
	sh := r.shard(id)
	sh.mu.RLock()
	e, ok := sh.entries[id]
	sh.mu.RUnlock()
	if ok {
		return e
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.entries[id]; ok {
		return e
	}
	e = newEntry(id, r.bufSize)
	sh.entries[id] = e
	return e
}

// Range applies fn to every registered entry. The enumeration is momentary:
// entries registered while Range runs may or may not be visited.
func (r *Registry) Range(fn func(*Entry)) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, e := range sh.entries {
			fn(e)
		}
		sh.mu.RUnlock()
	}
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Reset empties every ring, waiting out in-flight writes entry by entry.
func (r *Registry) Reset() {
	r.Range(func(e *Entry) {
		e.Collect()
		e.ClearRing()
		e.EndCollect()
	})
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
