// Package codec is the uniform encode/decode layer over the compression
// kinds a bundle may use for its block-info table and payload chunks:
// None, LZMA, LZ4 and LZ4HC.
//
// # Decoding
//
// Decode always returns exactly the declared decompressed size, or a
// types.ErrMalformed error:
//
//	out, err := codec.Decode(codec.LZ4, compressed, 131072)
//
// LZ4 and LZ4HC decode identically. LZMA chunks start with the 5-byte
// property header (properties byte plus little-endian dictionary size)
// followed by the raw range-coded stream.
//
// # Encoding
//
// Encode uses DefaultEncoder; build an Encoder to override the LZMA property
// set or the LZ4HC level:
//
//	enc := codec.DefaultEncoder()
//	enc.LZMA.DictSize = 1 << 20
//	out, err := enc.Encode(codec.LZMA, payload)
//
// LZHAM and unknown kinds fail with types.ErrUnsupported.
package codec
