package codec

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"

	"github.com/joshuapare/bundlekit/pkg/types"
)

// lzmaPropsSize is the properties byte plus the little-endian dictionary
// size that precede every LZMA stream in a bundle.
const lzmaPropsSize = 5

// lzmaClassicHeaderSize is the .lzma header understood by the decoder: the
// five property bytes followed by the 64-bit decompressed size.
const lzmaClassicHeaderSize = lzmaPropsSize + 8

// MatchFinder selects the LZMA match finder used when encoding.
type MatchFinder int

const (
	// MatchHashChain uses a 4-byte hash table. It is the default: the
	// library's binary-tree finder misses most long repeats.
	MatchHashChain MatchFinder = iota
	// MatchBinaryTree selects the library's binary-tree finder.
	MatchBinaryTree
)

// LZMAProperties is the LZMA encoder property set.
type LZMAProperties struct {
	DictSize    int
	LC, LP, PB  int
	MatchFinder MatchFinder
	EndMarker   bool
	// ShrinkDict lowers the dictionary to the smallest power of two
	// covering the input, bounded by DictSize.
	ShrinkDict bool
}

// DefaultLZMAProperties returns 2^23 dictionary, lc=3 lp=0 pb=2, hash-chain
// match finder and no end marker.
func DefaultLZMAProperties() LZMAProperties {
	return LZMAProperties{
		DictSize:    1 << 23,
		LC:          3,
		LP:          0,
		PB:          2,
		MatchFinder: MatchHashChain,
	}
}

// dictCapFor returns the smallest power of two covering n, clamped to
// [lzma.MinDictCap, limit].
func dictCapFor(n, limit int) int {
	if limit < lzma.MinDictCap {
		limit = lzma.MinDictCap
	}
	c := lzma.MinDictCap
	for c < n && c < limit {
		c <<= 1
	}
	if c > limit {
		c = limit
	}
	return c
}

func lzmaEncode(src []byte, p LZMAProperties) ([]byte, error) {
	matcher := lzma.HashTable4
	if p.MatchFinder == MatchBinaryTree {
		matcher = lzma.BinaryTree
	}
	dictCap := p.DictSize
	if dictCap < lzma.MinDictCap {
		dictCap = lzma.MinDictCap
	}
	if p.ShrinkDict {
		dictCap = dictCapFor(len(src), dictCap)
	}
	cfg := lzma.WriterConfig{
		Properties:   &lzma.Properties{LC: p.LC, LP: p.LP, PB: p.PB},
		DictCap:      dictCap,
		Matcher:      matcher,
		SizeInHeader: true,
		Size:         int64(len(src)),
		EOSMarker:    p.EndMarker,
	}

	var out bytes.Buffer
	w, err := cfg.NewWriter(&out)
	if err != nil {
		return nil, errors.Wrap(err, "lzma writer")
	}
	if _, err := w.Write(src); err != nil {
		return nil, errors.Wrap(err, "lzma encode")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "lzma flush")
	}

	// Drop the 64-bit size field: bundles carry only the property bytes.
	raw := out.Bytes()
	if len(raw) < lzmaClassicHeaderSize {
		return nil, errors.Errorf("lzma output too short: %d bytes", len(raw))
	}
	enc := make([]byte, 0, len(raw)-8)
	enc = append(enc, raw[:lzmaPropsSize]...)
	enc = append(enc, raw[lzmaClassicHeaderSize:]...)
	return enc, nil
}

func lzmaDecode(src []byte, size int) ([]byte, error) {
	if len(src) < lzmaPropsSize {
		return nil, types.Malformed("lzma: %d bytes is shorter than the property header", len(src))
	}
	var hdr [lzmaClassicHeaderSize]byte
	copy(hdr[:], src[:lzmaPropsSize])
	binary.LittleEndian.PutUint64(hdr[lzmaPropsSize:], uint64(size))

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr[:]), bytes.NewReader(src[lzmaPropsSize:])))
	if err != nil {
		return nil, types.MalformedCause(err, "lzma: bad property header")
	}
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, types.MalformedCause(err, "lzma: decode %d bytes", size)
	}
	return out, nil
}
