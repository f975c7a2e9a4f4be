package buf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/joshuapare/bundlekit/pkg/types"
)

func TestWriterReaderRoundTripBigEndian(t *testing.T) {
	out := NewBuffer(nil)
	w := NewWriter(out, binary.BigEndian)
	steps := []error{
		w.PutU16(0xBEEF),
		w.PutI16(-2),
		w.PutU32(0xDEADBEEF),
		w.PutI32(-7),
		w.PutU64(0x0102030405060708),
		w.PutI64(-9),
		w.PutCString("UnityFS"),
		w.PutPrefixedString("5.x.x"),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("write step %d: %v", i, err)
		}
	}
	if got := out.Bytes()[:2]; !bytes.Equal(got, []byte{0xBE, 0xEF}) {
		t.Fatalf("big-endian u16 = %x", got)
	}

	r := NewReader(bytes.NewReader(out.Bytes()), binary.BigEndian)
	if v, err := r.U16(); err != nil || v != 0xBEEF {
		t.Fatalf("U16 = %x, %v", v, err)
	}
	if v, err := r.I16(); err != nil || v != -2 {
		t.Fatalf("I16 = %d, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32 = %x, %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -7 {
		t.Fatalf("I32 = %d, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("U64 = %x, %v", v, err)
	}
	if v, err := r.I64(); err != nil || v != -9 {
		t.Fatalf("I64 = %d, %v", v, err)
	}
	if s, err := r.CString(); err != nil || s != "UnityFS" {
		t.Fatalf("CString = %q, %v", s, err)
	}
	if s, err := r.PrefixedString(); err != nil || s != "5.x.x" {
		t.Fatalf("PrefixedString = %q, %v", s, err)
	}
}

func TestReaderLittleEndianSwitch(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x00, 0x00, 0x01}), binary.BigEndian)
	r.SetOrder(binary.LittleEndian)
	if v, err := r.U16(); err != nil || v != 1 {
		t.Fatalf("LE U16 = %d, %v", v, err)
	}
	r.SetOrder(binary.BigEndian)
	if v, err := r.U16(); err != nil || v != 1 {
		t.Fatalf("BE U16 = %d, %v", v, err)
	}
}

func TestReaderShortReadIsIOFailure(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}), binary.BigEndian)
	_, err := r.U32()
	if !errors.Is(err, types.ErrIO) {
		t.Fatalf("expected IO failure, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}

	r = NewReader(bytes.NewReader(nil), binary.BigEndian)
	if _, err := r.U8(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("empty stream should report unexpected EOF, got %v", err)
	}
}

func TestReaderBadSeek(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}), binary.BigEndian)
	if _, err := r.Seek(-10, io.SeekStart); !errors.Is(err, types.ErrIO) {
		t.Fatalf("expected IO failure for negative seek, got %v", err)
	}
	if err := r.Skip(-1); !errors.Is(err, types.ErrIO) {
		t.Fatalf("expected IO failure for negative skip, got %v", err)
	}
}

func TestReaderAlignRelativeToOrigin(t *testing.T) {
	data := make([]byte, 64)
	rs := bytes.NewReader(data)

	r := NewReaderAt(rs, binary.BigEndian, 4)
	if _, err := r.Seek(5, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := r.Align(16); err != nil {
		t.Fatal(err)
	}
	if pos, _ := r.Pos(); pos != 20 {
		t.Fatalf("aligned pos = %d, want 20", pos)
	}
	// already aligned: no movement
	if err := r.Align(16); err != nil {
		t.Fatal(err)
	}
	if pos, _ := r.Pos(); pos != 20 {
		t.Fatalf("re-aligned pos = %d, want 20", pos)
	}
	if err := r.Align(1); err != nil {
		t.Fatal(err)
	}
}

func TestWriterAlignZeroFills(t *testing.T) {
	out := NewBuffer(nil)
	w := NewWriter(out, binary.BigEndian)
	if err := w.PutU8(0xFF); err != nil {
		t.Fatal(err)
	}
	if err := w.Align(16); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 16 {
		t.Fatalf("len after align = %d, want 16", out.Len())
	}
	for i, b := range out.Bytes()[1:] {
		if b != 0 {
			t.Fatalf("padding byte %d = %x", i+1, b)
		}
	}
	if err := w.Zeros(100); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 116 {
		t.Fatalf("len after zeros = %d", out.Len())
	}
}

func TestCStringWithoutTerminator(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("abc")), binary.BigEndian)
	if _, err := r.CString(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestPrefixedStringNegativeLength(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}), binary.BigEndian)
	if _, err := r.PrefixedString(); !errors.Is(err, types.ErrMalformed) {
		t.Fatalf("expected malformed, got %v", err)
	}
}
