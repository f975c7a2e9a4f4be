package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlign16(t *testing.T) {
	cases := map[int64]int64{0: 0, 1: 16, 15: 16, 16: 16, 17: 32, 47: 48}
	for in, want := range cases {
		require.Equal(t, want, Align16(in), "Align16(%d)", in)
	}
}

func TestAlignToAndPadding(t *testing.T) {
	require.Equal(t, int64(13), AlignTo(13, 1))
	require.Equal(t, int64(13), AlignTo(13, 0))
	require.Equal(t, int64(16), AlignTo(13, 4))
	require.Equal(t, int64(3), Padding(13, 4))
	require.Equal(t, int64(0), Padding(4096, 4096))
}

func TestKindSignatureRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindFS, KindArchive, KindWeb, KindRaw} {
		require.Equal(t, k, KindFromSignature(k.Signature()))
	}
	require.Equal(t, KindUnknown, KindFromSignature("UnityFs"))
	require.Equal(t, "", KindUnknown.Signature())
	require.Equal(t, "FS", KindFS.String())
}

func TestFlags(t *testing.T) {
	f := FlagCombinedData | FlagBlockInfoAtEnd | Flags(3)
	require.Equal(t, uint32(3), f.Compression())
	require.True(t, f.Has(FlagBlockInfoAtEnd))
	require.False(t, f.Has(FlagEncrypted))

	f = f.WithCompression(1)
	require.Equal(t, uint32(1), f.Compression())
	require.True(t, f.Has(FlagCombinedData))
	require.Equal(t, "compression=1|combined|info-at-end", f.String())
}

func TestHeaderSizes(t *testing.T) {
	require.Equal(t, 20, FSHeaderSize)
	require.Equal(t, 16, FSPatchSize)
	require.Equal(t, 10, BlockInfoSize)
}
