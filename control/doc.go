// File: control/doc.go
// Author: momentics <momentics@gmail.com>

// Package control provides the runtime control plane for ringlog: a dynamic
// configuration store with reload listeners, a lock-free statistics
// registry, and an optional Prometheus bridge. Nothing in this package is
// on the hot write path except atomic counter increments.
package control
