package buf

import (
	"encoding/binary"
	"io"

	"github.com/joshuapare/bundlekit/pkg/types"
)

var zeros [64]byte

// Writer is the emitting counterpart of Reader.
type Writer struct {
	w       io.WriteSeeker
	order   binary.ByteOrder
	origin  int64
	scratch [8]byte
}

// NewWriter returns a Writer whose origin is absolute offset 0 of w.
func NewWriter(w io.WriteSeeker, order binary.ByteOrder) *Writer {
	return NewWriterAt(w, order, 0)
}

// NewWriterAt returns a Writer whose Align calls are relative to origin.
func NewWriterAt(w io.WriteSeeker, order binary.ByteOrder, origin int64) *Writer {
	if order == nil {
		order = binary.BigEndian
	}
	return &Writer{w: w, order: order, origin: origin}
}

// Stream exposes the underlying stream.
func (c *Writer) Stream() io.WriteSeeker { return c.w }

// Origin returns the offset Align is measured from.
func (c *Writer) Origin() int64 { return c.origin }

// Pos returns the absolute stream position.
func (c *Writer) Pos() (int64, error) {
	pos, err := c.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, types.IOFailure(err, "tell")
	}
	return pos, nil
}

// Seek moves the cursor.
func (c *Writer) Seek(offset int64, whence int) (int64, error) {
	pos, err := c.w.Seek(offset, whence)
	if err != nil {
		return 0, types.IOFailure(err, "seek %d (whence %d)", offset, whence)
	}
	return pos, nil
}

// Write writes p in full.
func (c *Writer) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n, types.IOFailure(err, "write %d bytes", len(p))
	}
	return n, nil
}

func (c *Writer) put(p []byte) error {
	_, err := c.Write(p)
	return err
}

// Zeros writes n zero bytes.
func (c *Writer) Zeros(n int64) error {
	for n > 0 {
		chunk := int64(len(zeros))
		if n < chunk {
			chunk = n
		}
		if err := c.put(zeros[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Align zero-pads to the next multiple of n relative to the origin.
func (c *Writer) Align(n int64) error {
	if n <= 1 {
		return nil
	}
	pos, err := c.Pos()
	if err != nil {
		return err
	}
	rel := pos - c.origin
	if r := rel % n; r != 0 {
		return c.Zeros(n - r)
	}
	return nil
}

// PutU8 writes one byte.
func (c *Writer) PutU8(v uint8) error {
	c.scratch[0] = v
	return c.put(c.scratch[:1])
}

// PutU16 writes a uint16.
func (c *Writer) PutU16(v uint16) error {
	c.order.PutUint16(c.scratch[:2], v)
	return c.put(c.scratch[:2])
}

// PutI16 writes an int16.
func (c *Writer) PutI16(v int16) error { return c.PutU16(uint16(v)) }

// PutU32 writes a uint32.
func (c *Writer) PutU32(v uint32) error {
	c.order.PutUint32(c.scratch[:4], v)
	return c.put(c.scratch[:4])
}

// PutI32 writes an int32.
func (c *Writer) PutI32(v int32) error { return c.PutU32(uint32(v)) }

// PutU64 writes a uint64.
func (c *Writer) PutU64(v uint64) error {
	c.order.PutUint64(c.scratch[:8], v)
	return c.put(c.scratch[:8])
}

// PutI64 writes an int64.
func (c *Writer) PutI64(v int64) error { return c.PutU64(uint64(v)) }

// PutCString writes s followed by a NUL terminator.
func (c *Writer) PutCString(s string) error {
	if err := c.put([]byte(s)); err != nil {
		return err
	}
	return c.PutU8(0)
}

// PutPrefixedString writes an int32 length followed by the bytes of s.
func (c *Writer) PutPrefixedString(s string) error {
	if err := c.PutI32(int32(len(s))); err != nil {
		return err
	}
	return c.put([]byte(s))
}
