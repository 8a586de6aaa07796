// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package concurrency provides OS thread identity for keying per-thread
// buffers and optional CPU pinning for the merge worker.
//
// Thread identity uses the cheapest platform facility available: gettid on
// Linux, GetCurrentThreadId on Windows, and a goroutine-id fallback parsed
// from the runtime stack header elsewhere. Goroutine migration between OS
// threads is tolerated by the registry's per-entry latch, so identity only
// needs to be stable for the duration of a single write call.
package concurrency
