package codec

import (
	"fmt"

	"github.com/joshuapare/bundlekit/pkg/types"
)

// Kind is the compression kind stored in the low bits of the container and
// chunk flags.
type Kind uint32

const (
	None  Kind = 0
	LZMA  Kind = 1
	LZ4   Kind = 2
	LZ4HC Kind = 3
	LZHAM Kind = 4
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case LZMA:
		return "lzma"
	case LZ4:
		return "lz4"
	case LZ4HC:
		return "lz4hc"
	case LZHAM:
		return "lzham"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// Supported reports whether the kind can be encoded and decoded.
func (k Kind) Supported() bool {
	switch k {
	case None, LZMA, LZ4, LZ4HC:
		return true
	}
	return false
}

// Chunked reports whether payloads using k are split into fixed-size chunks.
// None and LZMA payloads are always emitted as one chunk.
func (k Kind) Chunked() bool {
	return k == LZ4 || k == LZ4HC
}

// ParseKind maps a case-sensitive name ("none", "lzma", "lz4", "lz4hc") to a
// Kind. Used by configuration loaders.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{None, LZMA, LZ4, LZ4HC, LZHAM} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, types.Unsupported("unknown compression kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
