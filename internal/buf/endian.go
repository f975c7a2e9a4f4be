// Package buf contains the binary cursor used by the container code: an
// endian-switchable reader and writer over seekable streams, an in-memory
// seekable buffer, and slice-level endian and bounds helpers.
package buf

import (
	"bytes"
	"encoding/binary"
)

// U16BE reads a big-endian uint16 from b. Returns 0 when b is too short.
func U16BE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// U32BE reads a big-endian uint32 from b. Returns 0 when b is too short.
func U32BE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// I32BE reads a big-endian int32 from b. Returns 0 when b is too short.
func I32BE(b []byte) int32 {
	return int32(U32BE(b))
}

// U64BE reads a big-endian uint64 from b. Returns 0 when b is too short.
func U64BE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// I64BE reads a big-endian int64 from b. Returns 0 when b is too short.
func I64BE(b []byte) int64 {
	return int64(U64BE(b))
}

// CString returns the bytes of b up to the first NUL and the number of bytes
// consumed including the terminator. ok is false when no NUL is present.
func CString(b []byte) (s string, n int, ok bool) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", 0, false
	}
	return string(b[:i]), i + 1, true
}
