package container

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/internal/format"
	"github.com/joshuapare/bundlekit/pkg/types"
)

func TestBlockInfosReindexAndLocate(t *testing.T) {
	bs := BlockInfos{
		{DecompressedSize: 10, CompressedSize: 4},
		{DecompressedSize: 0, CompressedSize: 0},
		{DecompressedSize: 5, CompressedSize: 5},
		{DecompressedSize: 20, CompressedSize: 7},
	}
	bs.Reindex()

	assert.Equal(t, int64(35), bs.TotalSize())
	assert.Equal(t, int64(16), bs.CompressedSize())
	assert.Equal(t, int64(10), bs[2].Offset)
	assert.Equal(t, int64(4), bs[2].DataOffset)

	cases := map[int64]int{0: 0, 9: 0, 10: 2, 14: 2, 15: 3, 34: 3, 35: -1, -1: -1}
	for off, want := range cases {
		assert.Equal(t, want, bs.Locate(off), "offset %d", off)
	}
}

func TestBlockInfoCompression(t *testing.T) {
	assert.Equal(t, codec.LZ4HC, BlockInfo{Flags: 0x43}.Compression())
	assert.Equal(t, codec.None, BlockInfo{}.Compression())
}

func TestEntriesIndexFoldsCase(t *testing.T) {
	es := Entries{{Path: "CAB-Abc"}, {Path: "archive:/Sharedassets0.assets"}}
	idx, err := es.Index()
	require.NoError(t, err)
	assert.Equal(t, 0, idx[FoldPath("cab-abc")])
	assert.Equal(t, 1, idx[FoldPath("ARCHIVE:/SHAREDASSETS0.ASSETS")])

	_, err = Entries{{Path: "a.txt"}, {Path: "A.TXT"}}.Index()
	assert.True(t, errors.Is(err, types.ErrMalformed))
}

func TestEntriesValidate(t *testing.T) {
	require.NoError(t, Entries{{Offset: 0, Size: 4, Path: "a"}, {Offset: 4, Size: 0, Path: "b"}}.Validate(4))
	for _, e := range []BlockEntry{
		{Offset: 2, Size: 3, Path: "over"},
		{Offset: -1, Size: 1, Path: "neg"},
		{Offset: 0, Size: -1, Path: "negsize"},
		{Offset: 5, Size: 0, Path: "past"},
	} {
		err := Entries{e}.Validate(4)
		assert.True(t, errors.Is(err, types.ErrMalformed), e.Path)
	}
}

func TestTableMarshalParse(t *testing.T) {
	tbl := &Table{
		BlockInfos: BlockInfos{{DecompressedSize: 100, CompressedSize: 60, Flags: 3}, {DecompressedSize: 7, CompressedSize: 7}},
		Entries:    Entries{{Offset: 0, Size: 107, Flags: 4, Path: "CAB-x"}},
	}
	copy(tbl.Hash[:], "hashhashhashhash")
	tbl.BlockInfos.Reindex()

	raw, err := tbl.Marshal()
	require.NoError(t, err)
	assert.Len(t, raw, format.HashSize+2*format.CountSize+2*format.BlockInfoSize+format.BlockEntryFixedSize+len("CAB-x")+1)

	got, err := ParseTable(raw)
	require.NoError(t, err)
	assert.Equal(t, tbl, got)
}

func TestParseTableRejectsBadCounts(t *testing.T) {
	tbl := &Table{Entries: Entries{{Path: "p"}}}
	raw, err := tbl.Marshal()
	require.NoError(t, err)

	huge := append([]byte(nil), raw...)
	huge[format.HashSize] = 0x7F
	_, err = ParseTable(huge)
	assert.True(t, errors.Is(err, types.ErrMalformed))

	negative := append([]byte(nil), raw...)
	negative[format.HashSize] = 0xFF
	_, err = ParseTable(negative)
	assert.True(t, errors.Is(err, types.ErrMalformed))

	_, err = ParseTable(raw[:len(raw)-1])
	assert.True(t, errors.Is(err, types.ErrMalformed))

	_, err = ParseTable(raw[:3])
	assert.True(t, errors.Is(err, types.ErrMalformed))
}

func TestPlanChunks(t *testing.T) {
	chunks, err := PlanChunks(300, 128, codec.LZ4HC)
	require.NoError(t, err)
	assert.Equal(t, []Chunk{{0, 128}, {128, 128}, {256, 44}}, chunks)

	chunks, err = PlanChunks(256, 128, codec.LZ4)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	for _, k := range []codec.Kind{codec.None, codec.LZMA} {
		chunks, err = PlanChunks(1<<20, 128, k)
		require.NoError(t, err)
		assert.Equal(t, []Chunk{{0, 1 << 20}}, chunks, k.String())
	}

	chunks, err = PlanChunks(0, 128, codec.LZ4)
	require.NoError(t, err)
	assert.Equal(t, []Chunk{{0, 0}}, chunks)

	_, err = PlanChunks(10, 0, codec.LZ4)
	assert.True(t, errors.Is(err, types.ErrUnsupported))
	_, err = PlanChunks(10, 4, codec.LZHAM)
	assert.True(t, errors.Is(err, types.ErrUnsupported))
}

func TestSerializationOptionsFlags(t *testing.T) {
	opts := DefaultSerializationOptions()
	assert.Equal(t, format.FlagCombinedData|format.Flags(codec.LZ4HC), opts.Flags())

	opts.TableCompression = codec.LZMA
	opts.BlockInfoAtEnd = true
	opts.NeedsPadding = true
	f := opts.Flags()
	assert.Equal(t, uint32(codec.LZMA), f.Compression())
	assert.True(t, f.Has(format.FlagBlockInfoAtEnd|format.FlagBlockInfoNeedsPadding|format.FlagCombinedData))
}

func TestSniff(t *testing.T) {
	kind, version, ok := Sniff([]byte("UnityFS\x00\x00\x00\x00\x07" + "5.x.x\x00"))
	require.True(t, ok)
	assert.Equal(t, format.KindFS, kind)
	assert.Equal(t, int32(7), version)

	kind, _, ok = Sniff([]byte("UnityWeb\x00\x00\x00\x00\x03"))
	assert.True(t, ok)
	assert.Equal(t, format.KindWeb, kind)

	_, _, ok = Sniff([]byte("UnityFS\x00\x00"))
	assert.False(t, ok)
	_, _, ok = Sniff([]byte("PK\x03\x04"))
	assert.False(t, ok)
}

func TestHeaderRoundTrip(t *testing.T) {
	out, _ := emitBundle(t, []byte("x"), Entries{{Size: 1, Path: "x"}}, SerializationOptions{
		TableCompression:   codec.None,
		PayloadCompression: codec.None,
	})
	fs := readBundle(t, out.Bytes())
	// A zero target keeps the header version.
	assert.Equal(t, testHeader(), fs.Header)
}
