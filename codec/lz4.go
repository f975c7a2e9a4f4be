package codec

import (
	"github.com/pierrec/lz4/v4"

	"github.com/joshuapare/bundlekit/pkg/types"
)

// DefaultLZ4HCLevel is the maximum LZ4HC compression depth.
const DefaultLZ4HCLevel = lz4.Level9

// lz4Encode compresses src as a raw LZ4 block. The destination is sized to
// CompressBlockBound so the library never reports incompressible input.
func lz4Encode(src []byte, hc bool, level lz4.CompressionLevel) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var (
		n   int
		err error
	)
	if hc {
		n, err = lz4.CompressBlockHC(src, dst, level, nil, nil)
	} else {
		n, err = lz4.CompressBlock(src, dst, nil)
	}
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

func lz4Decode(src []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, types.MalformedCause(err, "lz4: decode %d bytes", size)
	}
	if n != size {
		return nil, types.Malformed("lz4: decoded %d bytes, expected %d", n, size)
	}
	return out, nil
}
