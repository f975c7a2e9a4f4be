// Package format houses the low-level layout constants of the FS bundle
// container: signatures, header field sizes, flag bits and alignment rules.
// It is kept independent from the parsing code so both the reader and the
// emitter agree on one definition of the wire format.
package format

// Kind identifies the container variant named by the outer signature.
type Kind int

const (
	KindUnknown Kind = iota
	KindFS
	KindArchive
	KindWeb
	KindRaw
)

// Signatures of the four container variants. Each is stored NUL-terminated
// at the very start of a bundle.
const (
	SignatureFS      = "UnityFS"
	SignatureArchive = "UnityArchive"
	SignatureWeb     = "UnityWeb"
	SignatureRaw     = "UnityRaw"
)

var kindNames = map[Kind]string{
	KindFS:      "FS",
	KindArchive: "Archive",
	KindWeb:     "Web",
	KindRaw:     "Raw",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Signature returns the wire signature for k, or "" for KindUnknown.
func (k Kind) Signature() string {
	switch k {
	case KindFS:
		return SignatureFS
	case KindArchive:
		return SignatureArchive
	case KindWeb:
		return SignatureWeb
	case KindRaw:
		return SignatureRaw
	}
	return ""
}

// KindFromSignature maps a wire signature to its Kind.
func KindFromSignature(sig string) Kind {
	switch sig {
	case SignatureFS:
		return KindFS
	case SignatureArchive:
		return KindArchive
	case SignatureWeb:
		return KindWeb
	case SignatureRaw:
		return KindRaw
	}
	return KindUnknown
}

// FS body layout. All integers are big-endian.
//
//	Offset  Size  Description
//	------  ----  --------------------------------------------------
//	 0x00    8    total bundle length, measured from the signature
//	 0x08    4    compressed block-info table size
//	 0x0C    4    decompressed block-info table size
//	 0x10    4    flags (see Flags)
const (
	FSTotalSizeLen        = 8
	FSCompressedInfoLen   = 4
	FSDecompressedInfoLen = 4
	FSFlagsLen            = 4
	FSHeaderSize          = FSTotalSizeLen + FSCompressedInfoLen + FSDecompressedInfoLen + FSFlagsLen // 0x14

	// FSPatchSize is the part of the FS header rewritten after emission.
	FSPatchSize = FSTotalSizeLen + FSCompressedInfoLen + FSDecompressedInfoLen
)

// Block-info table layout (after decompression).
const (
	HashSize = 16

	// BlockInfoSize is one chunk descriptor:
	// u32 decompressed size, u32 compressed size, u16 flags.
	BlockInfoSize = 4 + 4 + 2

	// CountSize prefixes both the BlockInfo and the BlockEntry arrays.
	CountSize = 4

	// BlockEntryFixedSize precedes the NUL-terminated path:
	// i64 offset, i64 size, u32 flags.
	BlockEntryFixedSize = 8 + 8 + 4
)

const (
	// Align16Boundary is used both after the FS header (format version >= 7)
	// and before the payload when FlagBlockInfoNeedsPadding is set.
	Align16Boundary = 16

	// Align16Mask is Align16Boundary - 1.
	Align16Mask = Align16Boundary - 1

	// AlignedHeaderMinVersion is the first format version whose block-info
	// table starts on a 16-byte boundary.
	AlignedHeaderMinVersion = 7

	// DefaultBlockSize is the chunk size used for LZ4/LZ4HC payloads.
	DefaultBlockSize = 128 << 10

	// DefaultFormatVersion is emitted when no target version is configured.
	DefaultFormatVersion = 7
)
