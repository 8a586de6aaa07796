// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// ringlog_test.go — full lifecycle and ordering scenarios for RingFile.
package facade_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/ringlog/api"
	"github.com/momentics/ringlog/facade"
	"github.com/momentics/ringlog/protocol"
)

func newTestRingFile(t *testing.T, bufSize int, dest *bytes.Buffer) *facade.RingFile {
	t.Helper()
	cfg := facade.DefaultConfig()
	cfg.BufSize = bufSize
	cfg.Destination = dest
	rf, err := facade.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rf.Close() })
	return rf
}

func TestRingFileLifecycle(t *testing.T) {
	var dest bytes.Buffer
	rf := newTestRingFile(t, 64*1024, &dest)

	if err := rf.WriteAll([]byte("first line\n")); err != nil {
		t.Fatal(err)
	}
	if err := rf.WriteAll([]byte("second line\n")); err != nil {
		t.Fatal(err)
	}
	if err := rf.Dump(); err != nil {
		t.Fatal(err)
	}
	if got := dest.String(); got != "first line\nsecond line\n" {
		t.Errorf("dump = %q", got)
	}

	if err := rf.Clear(); err != nil {
		t.Fatal(err)
	}
	dest.Reset()
	if err := rf.Dump(); err != nil {
		t.Fatal(err)
	}
	if dest.Len() != 0 {
		t.Errorf("dump after clear = %q, want empty", dest.String())
	}

	if err := rf.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rf.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if err := rf.WriteAll([]byte("x")); !errors.Is(err, api.ErrShutdown) {
		t.Errorf("write after close = %v, want ErrShutdown", err)
	}
	if err := rf.Dump(); !errors.Is(err, api.ErrShutdown) {
		t.Errorf("dump after close = %v, want ErrShutdown", err)
	}
	if err := rf.Clear(); !errors.Is(err, api.ErrShutdown) {
		t.Errorf("clear after close = %v, want ErrShutdown", err)
	}
}

// TestDumpOrdersInterleavedWriters drives two synthetic thread identities
// with alternating writes and expects the merged dump in global write
// order: A1 B2 A3 B4 A5 B6.
func TestDumpOrdersInterleavedWriters(t *testing.T) {
	var dest bytes.Buffer
	rf := newTestRingFile(t, 64*1024, &dest)

	var want strings.Builder
	for i := 1; i <= 3; i++ {
		a := fmt.Sprintf("A%d\n", 2*i-1)
		b := fmt.Sprintf("B%d\n", 2*i)
		if err := rf.WriteAllTo(101, []byte(a)); err != nil {
			t.Fatal(err)
		}
		if err := rf.WriteAllTo(202, []byte(b)); err != nil {
			t.Fatal(err)
		}
		want.WriteString(a)
		want.WriteString(b)
	}
	if err := rf.Dump(); err != nil {
		t.Fatal(err)
	}
	if dest.String() != want.String() {
		t.Errorf("dump = %q, want %q", dest.String(), want.String())
	}
}

// TestOverflowYieldsLastRecords is the canonical eviction scenario: five
// records through a ring sized for exactly three; the dump must contain the
// last three payloads byte-identical and nothing else.
func TestOverflowYieldsLastRecords(t *testing.T) {
	const payloadLen = 20
	bufSize := 3*protocol.EncodedSize(payloadLen) + 8

	var dest bytes.Buffer
	rf := newTestRingFile(t, bufSize, &dest)

	var payloads [][]byte
	for i := 0; i < 5; i++ {
		p := bytes.Repeat([]byte{byte('A' + i)}, payloadLen)
		payloads = append(payloads, p)
		if err := rf.WriteAllTo(1, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := rf.Dump(); err != nil {
		t.Fatal(err)
	}
	want := bytes.Join(payloads[2:], nil)
	if !bytes.Equal(dest.Bytes(), want) {
		t.Errorf("dump = %q, want last three payloads %q", dest.Bytes(), want)
	}
}

// TestConcurrentWriters hammers the write path from eight goroutines and
// verifies the dump preserves each writer's order with nothing lost.
func TestConcurrentWriters(t *testing.T) {
	const writers = 8
	const perWriter = 1000

	var dest bytes.Buffer
	rf := newTestRingFile(t, 1<<20, &dest)

	var g errgroup.Group
	for w := 0; w < writers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWriter; i++ {
				if err := rf.WriteAll([]byte(fmt.Sprintf("w%d %d\n", w, i))); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := rf.Dump(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(dest.String(), "\n"), "\n")
	if len(lines) != writers*perWriter {
		t.Fatalf("dump has %d lines, want %d", len(lines), writers*perWriter)
	}
	last := make([]int, writers)
	for i := range last {
		last[i] = -1
	}
	for _, line := range lines {
		var w, i int
		if _, err := fmt.Sscanf(line, "w%d %d", &w, &i); err != nil {
			t.Fatalf("unparseable line %q: %v", line, err)
		}
		if i <= last[w] {
			t.Fatalf("writer %d order violated: %d after %d", w, i, last[w])
		}
		last[w] = i
	}
}

func TestBackgroundMergeRuns(t *testing.T) {
	var dest bytes.Buffer
	cfg := facade.DefaultConfig()
	cfg.BufSize = 64 * 1024
	cfg.Destination = &dest
	cfg.FlushInterval = 2 * time.Millisecond
	rf, err := facade.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()

	if err := rf.WriteAll([]byte("background\n")); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for rf.Stats().RecordsMerged == 0 {
		if time.Now().After(deadline) {
			t.Fatal("merge worker never folded the record")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPayloadTooLarge(t *testing.T) {
	var dest bytes.Buffer
	rf := newTestRingFile(t, 64, &dest)
	err := rf.WriteAll(bytes.Repeat([]byte{'x'}, 100))
	if !errors.Is(err, api.ErrPayloadTooLarge) {
		t.Errorf("err = %v, want ErrPayloadTooLarge", err)
	}
}

type failingWriter struct{ err error }

func (w *failingWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestDumpDestinationErrorSurfaced(t *testing.T) {
	var dest bytes.Buffer
	rf := newTestRingFile(t, 64*1024, &dest)
	if err := rf.WriteAll([]byte("doomed\n")); err != nil {
		t.Fatal(err)
	}
	sinkErr := errors.New("disk full")
	if err := rf.DumpTo(&failingWriter{err: sinkErr}); !errors.Is(err, sinkErr) {
		t.Errorf("DumpTo = %v, want the destination's own error", err)
	}
	if rf.Stats().DumpErrors != 1 {
		t.Errorf("DumpErrors = %d, want 1", rf.Stats().DumpErrors)
	}
}

func TestWriterInterface(t *testing.T) {
	var dest bytes.Buffer
	rf := newTestRingFile(t, 64*1024, &dest)
	n, err := rf.Write([]byte("via io.Writer\n"))
	if err != nil || n != len("via io.Writer\n") {
		t.Fatalf("Write = (%d, %v)", n, err)
	}
	if err := rf.Dump(); err != nil {
		t.Fatal(err)
	}
	if dest.String() != "via io.Writer\n" {
		t.Errorf("dump = %q", dest.String())
	}
}

func TestStatsAccounting(t *testing.T) {
	var dest bytes.Buffer
	rf := newTestRingFile(t, 64*1024, &dest)
	for i := 0; i < 5; i++ {
		if err := rf.WriteAll([]byte("line\n")); err != nil {
			t.Fatal(err)
		}
	}
	if err := rf.Dump(); err != nil {
		t.Fatal(err)
	}
	st := rf.Stats()
	if st.RecordsWritten != 5 {
		t.Errorf("RecordsWritten = %d, want 5", st.RecordsWritten)
	}
	if st.BytesWritten != uint64(5*protocol.EncodedSize(len("line\n"))) {
		t.Errorf("BytesWritten = %d", st.BytesWritten)
	}
	if st.Dumps != 1 {
		t.Errorf("Dumps = %d, want 1", st.Dumps)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := facade.DefaultConfig()
	cfg.BufSize = protocol.EncodedSize(0)
	if _, err := facade.New(cfg); !errors.Is(err, api.ErrInvalidConfig) {
		t.Errorf("New = %v, want ErrInvalidConfig", err)
	}
}

func TestFlushIntervalControl(t *testing.T) {
	var dest bytes.Buffer
	rf := newTestRingFile(t, 64*1024, &dest)
	rf.Control().SetConfig(map[string]any{"merge.flush_interval": 5 * time.Millisecond})
	got := rf.Control().GetDuration("merge.flush_interval", 0)
	if got != 5*time.Millisecond {
		t.Errorf("flush interval = %v, want 5ms", got)
	}
}
