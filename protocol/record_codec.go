// File: protocol/record_codec.go
// Package protocol implements the self-delimiting record framing for ringlog.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Each record is framed as magic (2 bytes), payload length (u32, big endian),
// ordering key (u64, big endian), payload. Framing exists so a reader can
// recover record boundaries from a ring snapshot whose front has been
// truncated by wraparound: the partial head record is detected and dropped
// instead of corrupting the decode.

package protocol

import (
	"encoding/binary"
	"errors"

	"github.com/momentics/ringlog/api"
)

const (
	magicHi = 0xA7
	magicLo = 0x59

	// HeaderSize is the fixed per-record framing overhead in bytes.
	HeaderSize = 14
)

// MaxRecordPayload bounds a single record payload. The limit keeps length
// fields sane during resynchronization after front truncation.
const MaxRecordPayload = 1 << 30 // 1 GiB

var errBadMagic = errors.New("record header magic mismatch")
var errOversize = errors.New("record payload exceeds maximum allowed size")

// EncodedSize returns the framed size of a payload of n bytes.
func EncodedSize(n int) int {
	return HeaderSize + n
}

// AppendRecord appends the framed record to dst and returns the extended
// slice. dst may be a reused scratch buffer; pass dst[:0] to overwrite.
func AppendRecord(dst []byte, key uint64, payload []byte) []byte {
	var hdr [HeaderSize]byte
	hdr[0] = magicHi
	hdr[1] = magicLo
	binary.BigEndian.PutUint32(hdr[2:6], uint32(len(payload)))
	binary.BigEndian.PutUint64(hdr[6:14], key)
	dst = append(dst, hdr[:]...)
	return append(dst, payload...)
}

// DecodeRecord parses one framed record from the front of raw.
// Returns record, consumed bytes, and error.
// If the record is incomplete, returns (nil, 0, nil).
func DecodeRecord(raw []byte) (*api.Record, int, error) {
	if len(raw) < HeaderSize {
		return nil, 0, nil // Incomplete
	}
	if raw[0] != magicHi || raw[1] != magicLo {
		return nil, 0, errBadMagic
	}
	length := int(binary.BigEndian.Uint32(raw[2:6]))
	if length > MaxRecordPayload {
		return nil, 0, errOversize
	}
	total := HeaderSize + length
	if len(raw) < total {
		return nil, 0, nil // Incomplete
	}
	payload := make([]byte, length)
	copy(payload, raw[HeaderSize:total])
	return &api.Record{
		Key:     binary.BigEndian.Uint64(raw[6:14]),
		Payload: payload,
	}, total, nil
}

// DecodeStream decodes all complete records from a ring snapshot.
// aligned indicates the snapshot starts on a record boundary (a ring that
// has not wrapped). For a wrapped ring the decoder resynchronizes past the
// half-evicted head record. Returns the records and the number of bytes
// skipped as unrecoverable framing.
func DecodeStream(raw []byte, aligned bool) ([]api.Record, int) {
	skipped := 0
	if !aligned {
		off := resync(raw)
		skipped += off
		raw = raw[off:]
	}
	var recs []api.Record
	for len(raw) > 0 {
		rec, n, err := DecodeRecord(raw)
		if err != nil {
			off := resync(raw[1:]) + 1
			skipped += off
			raw = raw[off:]
			continue
		}
		if n == 0 {
			skipped += len(raw)
			break
		}
		recs = append(recs, *rec)
		raw = raw[n:]
	}
	return recs, skipped
}

// resync returns the smallest offset at which a chain of well-formed frames
// runs to exactly the end of raw. Eviction only truncates the front, so the
// surviving suffix is always such a chain; candidate offsets that merely
// look like a header inside payload bytes fail the chain check.
func resync(raw []byte) int {
	for i := 0; i+1 < len(raw); i++ {
		if raw[i] != magicHi || raw[i+1] != magicLo {
			continue
		}
		if validChain(raw[i:]) {
			return i
		}
	}
	return len(raw)
}

// validChain reports whether raw is a sequence of complete frames with no
// trailing garbage.
func validChain(raw []byte) bool {
	for len(raw) > 0 {
		if len(raw) < HeaderSize {
			return false
		}
		if raw[0] != magicHi || raw[1] != magicLo {
			return false
		}
		length := int(binary.BigEndian.Uint32(raw[2:6]))
		if length > MaxRecordPayload {
			return false
		}
		total := HeaderSize + length
		if len(raw) < total {
			return false
		}
		raw = raw[total:]
	}
	return true
}
