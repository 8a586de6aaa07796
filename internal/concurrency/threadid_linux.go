//go:build linux

// File: internal/concurrency/threadid_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux thread identity via gettid(2).

package concurrency

import "golang.org/x/sys/unix"

// CurrentThreadID returns the kernel thread id of the calling OS thread.
func CurrentThreadID() uint64 {
	return uint64(unix.Gettid())
}
