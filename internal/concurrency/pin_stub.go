//go:build !linux

// File: internal/concurrency/pin_stub.go
// Author: momentics <momentics@gmail.com>
//
// CPU pinning is a no-op outside Linux.

package concurrency

// PinCurrentThread is a no-op on this platform.
func PinCurrentThread(cpuID int) error {
	return nil
}
