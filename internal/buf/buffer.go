package buf

import (
	"errors"
	"io"
)

// Buffer is an in-memory io.ReadWriteSeeker. Writes past the end grow the
// buffer, zero-filling any gap left by a forward seek. Used as scratch space
// when emitting tables whose sizes are only known after encoding.
type Buffer struct {
	b   []byte
	off int64
}

var errNegativePosition = errors.New("buf: negative position")

// NewBuffer returns a Buffer holding b with the cursor at 0. The Buffer takes
// ownership of b.
func NewBuffer(b []byte) *Buffer { return &Buffer{b: b} }

// Bytes returns the full contents regardless of the cursor.
func (b *Buffer) Bytes() []byte { return b.b }

// Len returns the total length of the contents.
func (b *Buffer) Len() int { return len(b.b) }

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.b = b.b[:0]
	b.off = 0
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.off >= int64(len(b.b)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.b[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.off + int64(len(p))
	if end > int64(len(b.b)) {
		if end > int64(cap(b.b)) {
			grown := make([]byte, len(b.b), max(end, 2*int64(cap(b.b))))
			copy(grown, b.b)
			b.b = grown
		}
		gap := b.b[len(b.b):end]
		clear(gap)
		b.b = b.b[:end]
	}
	n := copy(b.b[b.off:], p)
	b.off += int64(n)
	return n, nil
}

// Seek implements io.Seeker. Seeking past the end is allowed.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.b)) + offset
	default:
		return 0, errors.New("buf: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativePosition
	}
	b.off = abs
	return abs, nil
}

// Close is a no-op so a Buffer can stand in for a file.
func (b *Buffer) Close() error { return nil }
