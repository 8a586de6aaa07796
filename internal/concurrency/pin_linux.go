//go:build linux

// File: internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux CPU pinning for the merge worker thread via sched_setaffinity.
// Pinning the worker keeps merge latency steady on loaded hosts; it never
// applies to caller threads.

package concurrency

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its OS thread and binds
// that thread to the given CPU core. Negative cpuID is a no-op.
func PinCurrentThread(cpuID int) error {
	if cpuID < 0 {
		return nil
	}
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}
