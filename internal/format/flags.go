package format

import (
	"fmt"
	"strings"
)

// Flags is the FS header flag word.
type Flags uint32

const (
	// FlagCompressionMask selects the codec of the block-info table.
	FlagCompressionMask Flags = 0x3F
	// FlagCombinedData marks the table and the entry list as one blob.
	FlagCombinedData Flags = 0x40
	// FlagBlockInfoAtEnd places the table after the payload.
	FlagBlockInfoAtEnd Flags = 0x80
	// FlagOldWebPluginCompat is carried for completeness; it has no effect.
	FlagOldWebPluginCompat Flags = 0x100
	// FlagBlockInfoNeedsPadding aligns the payload start to 16 bytes.
	FlagBlockInfoNeedsPadding Flags = 0x200
	// FlagEncrypted marks a title-specific encrypted payload.
	FlagEncrypted Flags = 0x400
)

// Compression returns the raw compression kind stored in the low bits.
func (f Flags) Compression() uint32 { return uint32(f & FlagCompressionMask) }

// Has reports whether every bit of mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// WithCompression returns f with its low bits replaced by kind.
func (f Flags) WithCompression(kind uint32) Flags {
	return (f &^ FlagCompressionMask) | (Flags(kind) & FlagCompressionMask)
}

func (f Flags) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("compression=%d", f.Compression()))
	named := []struct {
		bit  Flags
		name string
	}{
		{FlagCombinedData, "combined"},
		{FlagBlockInfoAtEnd, "info-at-end"},
		{FlagOldWebPluginCompat, "old-web"},
		{FlagBlockInfoNeedsPadding, "padding"},
		{FlagEncrypted, "encrypted"},
	}
	for _, n := range named {
		if f.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
