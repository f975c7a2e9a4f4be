package codec

import (
	"errors"
	"io"

	"github.com/pierrec/lz4/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/joshuapare/bundlekit/internal/metrics"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// Encoder carries the tunables used when compressing.
type Encoder struct {
	LZMA       LZMAProperties
	LZ4HCLevel lz4.CompressionLevel
}

// DefaultEncoder returns the reference encoder settings.
func DefaultEncoder() Encoder {
	return Encoder{
		LZMA:       DefaultLZMAProperties(),
		LZ4HCLevel: DefaultLZ4HCLevel,
	}
}

// Encode compresses src with the default encoder.
func Encode(kind Kind, src []byte) ([]byte, error) {
	return DefaultEncoder().Encode(kind, src)
}

// Encode compresses src with kind. The result always decodes back to src
// with the same kind.
func (e Encoder) Encode(kind Kind, src []byte) ([]byte, error) {
	if !kind.Supported() {
		return nil, types.Unsupported("compression kind %s is not supported", kind)
	}

	var (
		out []byte
		err error
	)
	switch {
	case kind == None:
		out = append([]byte(nil), src...)
	case len(src) == 0 && kind != LZMA:
		out = []byte{}
	case kind == LZMA:
		out, err = lzmaEncode(src, e.LZMA)
	case kind == LZ4:
		out, err = lz4Encode(src, false, 0)
	case kind == LZ4HC:
		level := e.LZ4HCLevel
		if level == 0 {
			level = DefaultLZ4HCLevel
		}
		out, err = lz4Encode(src, true, level)
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "encode %s", kind)
	}
	metrics.BytesEncoded.WithLabelValues(kind.String()).Add(float64(len(out)))
	return out, nil
}

// Decode decompresses src, which must hold exactly one compressed chunk, into
// exactly size bytes. For kind None the returned slice aliases src.
func Decode(kind Kind, src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, types.Malformed("negative decompressed size %d", size)
	}
	if !kind.Supported() {
		return nil, types.Unsupported("compression kind %s is not supported", kind)
	}

	var (
		out []byte
		err error
	)
	switch {
	case kind == None:
		if len(src) != size {
			err = types.Malformed("stored chunk holds %d bytes, expected %d", len(src), size)
		} else {
			out = src
		}
	case size == 0 && kind != LZMA:
		out = []byte{}
	case kind == LZMA:
		out, err = lzmaDecode(src, size)
	default:
		out, err = lz4Decode(src, size)
	}
	if err != nil {
		metrics.DecodeErrors.WithLabelValues(kind.String()).Inc()
		return nil, err
	}
	metrics.ChunksDecoded.WithLabelValues(kind.String()).Inc()
	metrics.BytesDecoded.WithLabelValues(kind.String()).Add(float64(size))
	return out, nil
}

// ReadChunk reads compressedSize bytes from r and decodes them to size
// bytes. A stream that ends early is reported as malformed data.
func ReadChunk(r io.Reader, kind Kind, compressedSize, size int) ([]byte, error) {
	if compressedSize < 0 {
		return nil, types.Malformed("negative compressed size %d", compressedSize)
	}
	if !kind.Supported() {
		return nil, types.Unsupported("compression kind %s is not supported", kind)
	}
	src := make([]byte, compressedSize)
	if _, err := io.ReadFull(r, src); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, types.MalformedCause(io.ErrUnexpectedEOF, "chunk truncated: want %d bytes", compressedSize)
		}
		return nil, types.IOFailure(err, "read chunk")
	}
	return Decode(kind, src, size)
}
