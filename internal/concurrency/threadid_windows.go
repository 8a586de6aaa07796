//go:build windows

// File: internal/concurrency/threadid_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows thread identity via GetCurrentThreadId.

package concurrency

import "golang.org/x/sys/windows"

// CurrentThreadID returns the id of the calling OS thread.
func CurrentThreadID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
