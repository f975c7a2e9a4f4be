package container

import (
	"bytes"
	"sort"

	"golang.org/x/text/cases"

	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/internal/buf"
	"github.com/joshuapare/bundlekit/internal/format"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// chunkCompressionMask selects the codec from a chunk's flags.
const chunkCompressionMask = 0x3F

// BlockInfo describes one compressed chunk of the payload.
type BlockInfo struct {
	DecompressedSize uint32
	CompressedSize   uint32
	Flags            uint16

	// Offset is where the chunk's output starts in the flattened payload.
	Offset int64
	// DataOffset is where the chunk's compressed bytes start, relative to
	// the first chunk.
	DataOffset int64
}

// Compression returns the chunk's codec.
func (b BlockInfo) Compression() codec.Kind {
	return codec.Kind(b.Flags & chunkCompressionMask)
}

// End is the flattened offset just past the chunk's output.
func (b BlockInfo) End() int64 { return b.Offset + int64(b.DecompressedSize) }

// BlockInfos is the ordered chunk list. Offsets are filled in by Reindex.
type BlockInfos []BlockInfo

// Reindex recomputes the running offsets.
func (bs BlockInfos) Reindex() {
	var off, data int64
	for i := range bs {
		bs[i].Offset = off
		bs[i].DataOffset = data
		off += int64(bs[i].DecompressedSize)
		data += int64(bs[i].CompressedSize)
	}
}

// TotalSize is the flattened payload length.
func (bs BlockInfos) TotalSize() int64 {
	if len(bs) == 0 {
		return 0
	}
	return bs[len(bs)-1].End()
}

// CompressedSize is the number of payload bytes stored in the container.
func (bs BlockInfos) CompressedSize() int64 {
	if len(bs) == 0 {
		return 0
	}
	last := bs[len(bs)-1]
	return last.DataOffset + int64(last.CompressedSize)
}

// Locate returns the index of the chunk holding flattened offset off, or -1
// when off lies beyond the payload. Empty chunks are never returned.
func (bs BlockInfos) Locate(off int64) int {
	if off < 0 {
		return -1
	}
	i := sort.Search(len(bs), func(i int) bool { return bs[i].End() > off })
	if i == len(bs) {
		return -1
	}
	return i
}

// BlockEntry is a named byte range of the flattened payload.
type BlockEntry struct {
	Offset int64
	Size   int64
	Flags  uint32
	Path   string
}

// End is the flattened offset just past the entry.
func (e BlockEntry) End() int64 { return e.Offset + e.Size }

// Entries is the ordered entry list of a container.
type Entries []BlockEntry

// FoldPath is the key under which paths are compared. Lookups ignore case.
func FoldPath(p string) string {
	return cases.Fold().String(p)
}

// Index maps folded paths to their position in es. Two entries whose paths
// differ only by case are rejected.
func (es Entries) Index() (map[string]int, error) {
	idx := make(map[string]int, len(es))
	for i, e := range es {
		key := FoldPath(e.Path)
		if j, dup := idx[key]; dup {
			return nil, types.Malformed("duplicate entry path %q (also %q)", e.Path, es[j].Path)
		}
		idx[key] = i
	}
	return idx, nil
}

// Validate checks that every entry lies within a payload of total bytes and
// that paths are unique.
func (es Entries) Validate(total int64) error {
	for _, e := range es {
		if e.Offset < 0 || e.Size < 0 || !buf.InRange(e.Offset, e.Size, total) {
			return types.Malformed("entry %q [%d,+%d) exceeds payload of %d bytes", e.Path, e.Offset, e.Size, total)
		}
	}
	_, err := es.Index()
	return err
}

// Table is the decompressed block-info table.
type Table struct {
	Hash       [format.HashSize]byte
	BlockInfos BlockInfos
	Entries    Entries
}

// ParseTable decodes a decompressed block-info table.
func ParseTable(raw []byte) (*Table, error) {
	r := buf.NewReader(bytes.NewReader(raw), nil)
	size := int64(len(raw))
	t := &Table{}

	if err := r.ReadFull(t.Hash[:]); err != nil {
		return nil, truncated(err, "table hash")
	}

	count, err := r.I32()
	if err != nil {
		return nil, truncated(err, "block count")
	}
	pos, _ := r.Pos()
	if _, err := buf.CheckListBounds(size, pos, int64(count), format.BlockInfoSize); err != nil {
		return nil, types.MalformedCause(err, "block list of %d entries", count)
	}
	t.BlockInfos = make(BlockInfos, count)
	for i := range t.BlockInfos {
		b := &t.BlockInfos[i]
		if b.DecompressedSize, err = r.U32(); err != nil {
			return nil, truncated(err, "block info")
		}
		if b.CompressedSize, err = r.U32(); err != nil {
			return nil, truncated(err, "block info")
		}
		if b.Flags, err = r.U16(); err != nil {
			return nil, truncated(err, "block info")
		}
	}
	t.BlockInfos.Reindex()

	count, err = r.I32()
	if err != nil {
		return nil, truncated(err, "entry count")
	}
	pos, _ = r.Pos()
	// Every entry carries at least its fixed part and a terminator.
	if _, err := buf.CheckListBounds(size, pos, int64(count), format.BlockEntryFixedSize+1); err != nil {
		return nil, types.MalformedCause(err, "entry list of %d entries", count)
	}
	t.Entries = make(Entries, count)
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.Offset, err = r.I64(); err != nil {
			return nil, truncated(err, "entry")
		}
		if e.Size, err = r.I64(); err != nil {
			return nil, truncated(err, "entry")
		}
		if e.Flags, err = r.U32(); err != nil {
			return nil, truncated(err, "entry")
		}
		if e.Path, err = r.CString(); err != nil {
			return nil, truncated(err, "entry path")
		}
	}
	return t, nil
}

// Marshal encodes the table uncompressed.
func (t *Table) Marshal() ([]byte, error) {
	out := buf.NewBuffer(nil)
	w := buf.NewWriter(out, nil)
	if _, err := w.Write(t.Hash[:]); err != nil {
		return nil, err
	}
	if err := w.PutI32(int32(len(t.BlockInfos))); err != nil {
		return nil, err
	}
	for _, b := range t.BlockInfos {
		if err := w.PutU32(b.DecompressedSize); err != nil {
			return nil, err
		}
		if err := w.PutU32(b.CompressedSize); err != nil {
			return nil, err
		}
		if err := w.PutU16(b.Flags); err != nil {
			return nil, err
		}
	}
	if err := w.PutI32(int32(len(t.Entries))); err != nil {
		return nil, err
	}
	for _, e := range t.Entries {
		if err := w.PutI64(e.Offset); err != nil {
			return nil, err
		}
		if err := w.PutI64(e.Size); err != nil {
			return nil, err
		}
		if err := w.PutU32(e.Flags); err != nil {
			return nil, err
		}
		if err := w.PutCString(e.Path); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}
