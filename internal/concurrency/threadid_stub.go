//go:build !linux && !windows

// File: internal/concurrency/threadid_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback thread identity for platforms without a cheap thread-id syscall:
// the goroutine id parsed from the runtime stack header. Slower than the
// syscall paths but correct; each goroutine maps to its own buffer entry.

package concurrency

import (
	"runtime"
)

// CurrentThreadID returns the calling goroutine's id.
func CurrentThreadID() uint64 {
	var buf [32]byte
	n := runtime.Stack(buf[:], false)
	// Stack header is "goroutine NNN [...".
	b := buf[10:n]
	var id uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
