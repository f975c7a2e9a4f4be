package container

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/internal/buf"
	"github.com/joshuapare/bundlekit/internal/format"
	"github.com/joshuapare/bundlekit/internal/logger"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// FS is a parsed FS container body.
type FS struct {
	Header Header

	// Size is the total container length measured from the signature.
	Size                    int64
	CompressedBlockInfoSize int32
	BlockInfoSize           int32
	Flags                   format.Flags

	Hash       [format.HashSize]byte
	BlockInfos BlockInfos
	Entries    Entries

	// Start is the absolute offset of the signature in the source.
	Start int64
	// DataStart is the absolute offset of the first payload chunk.
	DataStart int64

	index map[string]int
}

// Length is the number of source bytes the container occupies.
func (fs *FS) Length() int64 { return fs.Size }

// TableCompression is the codec of the block-info table.
func (fs *FS) TableCompression() codec.Kind {
	return codec.Kind(fs.Flags.Compression())
}

// Lookup finds an entry by path, ignoring case.
func (fs *FS) Lookup(path string) (BlockEntry, bool) {
	i, ok := fs.index[FoldPath(path)]
	if !ok {
		return BlockEntry{}, false
	}
	return fs.Entries[i], true
}

// Payload returns a reader reconstructing ranges of the flattened payload
// from src, which must be the stream fs was parsed from.
func (fs *FS) Payload(src io.ReadSeeker) *PayloadReader {
	return NewPayloadReader(src, fs.DataStart, fs.BlockInfos)
}

// Read parses a container whose signature starts at the reader's current
// position. On success the stream is left at the first payload chunk.
func Read(r io.ReadSeeker) (*FS, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, types.IOFailure(err, "tell")
	}
	cur := buf.NewReaderAt(r, nil, start)
	hdr, err := ReadHeader(cur)
	if err != nil {
		return nil, err
	}
	if err := hdr.RequireFS(); err != nil {
		return nil, err
	}
	return ReadFS(cur, hdr)
}

// ReadFS parses the FS body following hdr. The cursor's origin must be the
// signature offset; alignment is measured from there.
func ReadFS(r *buf.Reader, hdr Header) (*FS, error) {
	fs := &FS{Header: hdr, Start: r.Origin()}
	var err error

	if fs.Size, err = r.I64(); err != nil {
		return nil, truncated(err, "container size")
	}
	if fs.CompressedBlockInfoSize, err = r.I32(); err != nil {
		return nil, truncated(err, "compressed table size")
	}
	if fs.BlockInfoSize, err = r.I32(); err != nil {
		return nil, truncated(err, "table size")
	}
	flags, err := r.U32()
	if err != nil {
		return nil, truncated(err, "flags")
	}
	fs.Flags = format.Flags(flags)

	if fs.Flags.Has(format.FlagEncrypted) {
		return nil, types.Unsupported("encrypted containers are not supported")
	}
	if fs.Size < 0 || fs.CompressedBlockInfoSize < 0 || fs.BlockInfoSize < 0 {
		return nil, types.Malformed("negative size field (size=%d table=%d/%d)",
			fs.Size, fs.CompressedBlockInfoSize, fs.BlockInfoSize)
	}
	kind := fs.TableCompression()
	if !kind.Supported() {
		return nil, types.Unsupported("table compression %s is not supported", kind)
	}

	pos, err := r.Pos()
	if err != nil {
		return nil, err
	}
	atEnd := fs.Flags.Has(format.FlagBlockInfoAtEnd)
	if atEnd {
		if err := seekTableAtEnd(r, fs); err != nil {
			return nil, err
		}
	} else if hdr.AlignedTable() {
		if err := r.Align(format.Align16Boundary); err != nil {
			return nil, err
		}
	}

	compressed, err := readLimited(r.Stream(), int64(fs.CompressedBlockInfoSize))
	if err != nil {
		return nil, truncated(err, "block-info table")
	}
	raw, err := codec.Decode(kind, compressed, int(fs.BlockInfoSize))
	if err != nil {
		return nil, err
	}
	table, err := ParseTable(raw)
	if err != nil {
		return nil, err
	}
	fs.Hash = table.Hash
	fs.BlockInfos = table.BlockInfos
	fs.Entries = table.Entries

	if atEnd {
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, err
		}
	}
	if fs.Flags.Has(format.FlagBlockInfoNeedsPadding) {
		if err := r.Align(format.Align16Boundary); err != nil {
			return nil, err
		}
	}
	if fs.DataStart, err = r.Pos(); err != nil {
		return nil, err
	}

	if err := fs.Entries.Validate(fs.BlockInfos.TotalSize()); err != nil {
		return nil, err
	}
	if fs.index, err = fs.Entries.Index(); err != nil {
		return nil, err
	}

	logger.Debug("parsed container", logrus.Fields{
		"start":   fs.Start,
		"size":    fs.Size,
		"flags":   fs.Flags.String(),
		"chunks":  len(fs.BlockInfos),
		"entries": len(fs.Entries),
	})
	return fs, nil
}

// seekTableAtEnd positions r on a table stored after the payload. The table
// ends where the container ends; a zero size falls back to the stream end.
func seekTableAtEnd(r *buf.Reader, fs *FS) error {
	csize := int64(fs.CompressedBlockInfoSize)
	if fs.Size > 0 {
		if fs.Size < csize {
			return types.Malformed("table of %d bytes does not fit a container of %d bytes", csize, fs.Size)
		}
		_, err := r.Seek(fs.Start+fs.Size-csize, io.SeekStart)
		return err
	}
	_, err := r.Seek(-csize, io.SeekEnd)
	return err
}

// readLimited reads exactly n bytes, growing the buffer as data arrives so a
// corrupt size field cannot force a huge allocation up front.
func readLimited(r io.Reader, n int64) ([]byte, error) {
	var out bytes.Buffer
	got, err := out.ReadFrom(io.LimitReader(r, n))
	if err != nil {
		return nil, types.IOFailure(err, "read %d bytes", n)
	}
	if got < n {
		return nil, io.ErrUnexpectedEOF
	}
	return out.Bytes(), nil
}
