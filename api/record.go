// Package api
// Author: momentics <momentics@gmail.com>
//
// Decoded record representation shared by the framing codec and the
// merge coordinator.

package api

// Record is one captured log record after framing has been stripped.
// Key is the global ordering key assigned on the write path; records
// from any set of threads sort into global write order by Key.
type Record struct {
	Key     uint64
	Payload []byte
}
