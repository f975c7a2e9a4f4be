package buf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/joshuapare/bundlekit/pkg/types"
)

// maxCStringLen bounds NUL-terminated string scans so a corrupt table cannot
// make the reader consume an entire stream looking for a terminator.
const maxCStringLen = 1 << 16

// Reader is a binary cursor over a seekable stream. Integer reads honour the
// configured byte order; Align works relative to a fixed origin.
type Reader struct {
	r       io.ReadSeeker
	order   binary.ByteOrder
	origin  int64
	scratch [8]byte
}

// NewReader returns a Reader whose origin is absolute offset 0 of r.
func NewReader(r io.ReadSeeker, order binary.ByteOrder) *Reader {
	return NewReaderAt(r, order, 0)
}

// NewReaderAt returns a Reader whose Align calls are relative to origin.
func NewReaderAt(r io.ReadSeeker, order binary.ByteOrder, origin int64) *Reader {
	if order == nil {
		order = binary.BigEndian
	}
	return &Reader{r: r, order: order, origin: origin}
}

// Stream exposes the underlying stream.
func (c *Reader) Stream() io.ReadSeeker { return c.r }

// Order returns the active byte order.
func (c *Reader) Order() binary.ByteOrder { return c.order }

// SetOrder switches the byte order for subsequent reads.
func (c *Reader) SetOrder(order binary.ByteOrder) { c.order = order }

// Origin returns the offset Align is measured from.
func (c *Reader) Origin() int64 { return c.origin }

// Pos returns the absolute stream position.
func (c *Reader) Pos() (int64, error) {
	pos, err := c.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, types.IOFailure(err, "tell")
	}
	return pos, nil
}

// Seek moves the cursor. Negative targets are reported as IO failures.
func (c *Reader) Seek(offset int64, whence int) (int64, error) {
	pos, err := c.r.Seek(offset, whence)
	if err != nil {
		return 0, types.IOFailure(err, "seek %d (whence %d)", offset, whence)
	}
	return pos, nil
}

// Skip advances the cursor by n bytes without reading them.
func (c *Reader) Skip(n int64) error {
	if n < 0 {
		return types.IOFailure(errors.New("negative skip"), "skip %d", n)
	}
	_, err := c.Seek(n, io.SeekCurrent)
	return err
}

// Align advances to the next multiple of n relative to the origin.
func (c *Reader) Align(n int64) error {
	if n <= 1 {
		return nil
	}
	pos, err := c.Pos()
	if err != nil {
		return err
	}
	rel := pos - c.origin
	if r := rel % n; r != 0 {
		_, err = c.Seek(n-r, io.SeekCurrent)
	}
	return err
}

// ReadFull fills p completely.
func (c *Reader) ReadFull(p []byte) error {
	if _, err := io.ReadFull(c.r, p); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return types.IOFailure(err, "read %d bytes", len(p))
	}
	return nil
}

// Bytes reads exactly n bytes into a new slice.
func (c *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, types.IOFailure(errors.New("negative length"), "read %d bytes", n)
	}
	p := make([]byte, n)
	if err := c.ReadFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Reader) fixed(n int) ([]byte, error) {
	p := c.scratch[:n]
	if err := c.ReadFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

// U8 reads one byte.
func (c *Reader) U8() (uint8, error) {
	p, err := c.fixed(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// U16 reads a uint16.
func (c *Reader) U16() (uint16, error) {
	p, err := c.fixed(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(p), nil
}

// I16 reads an int16.
func (c *Reader) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

// U32 reads a uint32.
func (c *Reader) U32() (uint32, error) {
	p, err := c.fixed(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(p), nil
}

// I32 reads an int32.
func (c *Reader) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// U64 reads a uint64.
func (c *Reader) U64() (uint64, error) {
	p, err := c.fixed(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(p), nil
}

// I64 reads an int64.
func (c *Reader) I64() (int64, error) {
	v, err := c.U64()
	return int64(v), err
}

// CString reads bytes up to and including a NUL terminator and returns them
// without the terminator.
func (c *Reader) CString() (string, error) {
	var out bytes.Buffer
	for out.Len() < maxCStringLen {
		b, err := c.U8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return out.String(), nil
		}
		out.WriteByte(b)
	}
	return "", types.Malformed("string exceeds %d bytes without terminator", maxCStringLen)
}

// PrefixedString reads an int32 length followed by that many bytes.
func (c *Reader) PrefixedString() (string, error) {
	n, err := c.I32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", types.Malformed("negative string length %d", n)
	}
	p, err := c.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(p), nil
}
