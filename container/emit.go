package container

import (
	"bytes"
	"io"
	"math"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/internal/buf"
	"github.com/joshuapare/bundlekit/internal/format"
	"github.com/joshuapare/bundlekit/internal/logger"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// SerializationOptions controls how a container is emitted.
type SerializationOptions struct {
	// BlockSize is the chunk size of LZ4 and LZ4HC payloads.
	BlockSize int
	// TableCompression compresses the block-info table.
	TableCompression codec.Kind
	// PayloadCompression compresses every payload chunk.
	PayloadCompression codec.Kind
	// TargetFormatVersion is written to the header. Zero keeps the
	// header's own version.
	TargetFormatVersion int32
	// BlockInfoAtEnd stores the table after the payload.
	BlockInfoAtEnd bool
	// NeedsPadding aligns the payload start to 16 bytes.
	NeedsPadding bool
	// StoreIncompressible stores a chunk uncompressed when its codec does
	// not make it smaller.
	StoreIncompressible bool
	// Encoder carries codec tunables.
	Encoder codec.Encoder
}

// DefaultSerializationOptions returns 128 KiB LZ4HC chunks with an LZ4HC
// table, targeting format version 7.
func DefaultSerializationOptions() SerializationOptions {
	return SerializationOptions{
		BlockSize:           format.DefaultBlockSize,
		TableCompression:    codec.LZ4HC,
		PayloadCompression:  codec.LZ4HC,
		TargetFormatVersion: format.DefaultFormatVersion,
		Encoder:             codec.DefaultEncoder(),
	}
}

// Validate rejects option combinations no reader could consume.
func (o SerializationOptions) Validate() error {
	if !o.TableCompression.Supported() {
		return types.Unsupported("table compression %s is not supported", o.TableCompression)
	}
	if !o.PayloadCompression.Supported() {
		return types.Unsupported("payload compression %s is not supported", o.PayloadCompression)
	}
	if o.PayloadCompression.Chunked() && (o.BlockSize <= 0 || int64(o.BlockSize) > math.MaxUint32) {
		return types.Unsupported("block size %d out of range", o.BlockSize)
	}
	return nil
}

// Flags returns the header flag word the options produce.
func (o SerializationOptions) Flags() format.Flags {
	f := format.FlagCombinedData.WithCompression(uint32(o.TableCompression))
	if o.BlockInfoAtEnd {
		f |= format.FlagBlockInfoAtEnd
	}
	if o.NeedsPadding {
		f |= format.FlagBlockInfoNeedsPadding
	}
	return f
}

// Layout is a fully encoded container body waiting to be written.
type Layout struct {
	Flags      format.Flags
	Hash       [format.HashSize]byte
	BlockInfos BlockInfos
	Entries    Entries

	// Table is the compressed block-info table; TableSize its raw length.
	Table     []byte
	TableSize int
	// Data is the concatenation of every compressed chunk.
	Data []byte
}

// BuildLayout reads size bytes of flattened payload from payload and encodes
// chunks and table according to opts. Entries must address that payload.
func BuildLayout(payload io.Reader, size int64, entries Entries, hash [format.HashSize]byte, opts SerializationOptions) (*Layout, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Encoder == (codec.Encoder{}) {
		opts.Encoder = codec.DefaultEncoder()
	}
	if err := entries.Validate(size); err != nil {
		return nil, err
	}
	chunks, err := PlanChunks(size, opts.BlockSize, opts.PayloadCompression)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		Flags:      opts.Flags(),
		Hash:       hash,
		Entries:    entries,
		BlockInfos: make(BlockInfos, 0, len(chunks)),
	}
	var data bytes.Buffer
	for i, c := range chunks {
		if c.Size > math.MaxUint32 {
			return nil, types.Unsupported("chunk %d of %d bytes exceeds the 32-bit size field", i, c.Size)
		}
		raw := make([]byte, c.Size)
		if _, err := io.ReadFull(payload, raw); err != nil {
			return nil, pkgerrors.Wrapf(err, "read payload chunk %d", i)
		}
		kind := opts.PayloadCompression
		enc, err := opts.Encoder.Encode(kind, raw)
		if err != nil {
			return nil, pkgerrors.WithMessagef(err, "chunk %d", i)
		}
		if opts.StoreIncompressible && kind != codec.None && kind != codec.LZMA && len(enc) >= len(raw) {
			enc, kind = raw, codec.None
		}
		if int64(len(enc)) > math.MaxUint32 {
			return nil, types.Unsupported("compressed chunk %d of %d bytes exceeds the 32-bit size field", i, len(enc))
		}
		data.Write(enc)
		l.BlockInfos = append(l.BlockInfos, BlockInfo{
			DecompressedSize: uint32(c.Size),
			CompressedSize:   uint32(len(enc)),
			Flags:            uint16(kind),
		})
	}
	l.BlockInfos.Reindex()
	l.Data = data.Bytes()

	table := &Table{Hash: hash, BlockInfos: l.BlockInfos, Entries: entries}
	raw, err := table.Marshal()
	if err != nil {
		return nil, err
	}
	l.TableSize = len(raw)
	if l.Table, err = opts.Encoder.Encode(opts.TableCompression, raw); err != nil {
		return nil, pkgerrors.WithMessage(err, "block-info table")
	}
	if int64(len(l.Table)) > math.MaxInt32 || int64(l.TableSize) > math.MaxInt32 {
		return nil, types.Unsupported("block-info table of %d bytes is too large", l.TableSize)
	}
	return l, nil
}

// WriteLayout writes hdr and l at the current position of w, then patches
// the header sizes. The returned FS describes what was written, as a
// subsequent Read would report it.
func WriteLayout(w io.WriteSeeker, hdr Header, l *Layout, opts SerializationOptions) (*FS, error) {
	if opts.TargetFormatVersion != 0 {
		hdr.FormatVersion = opts.TargetFormatVersion
	}
	if hdr.Format == format.KindUnknown {
		hdr.Format = format.KindFromSignature(hdr.Signature)
	}
	if err := hdr.RequireFS(); err != nil {
		return nil, err
	}

	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, types.IOFailure(err, "tell")
	}
	cw := buf.NewWriterAt(w, nil, start)
	if err := WriteHeader(cw, hdr); err != nil {
		return nil, err
	}
	patchAt, err := cw.Pos()
	if err != nil {
		return nil, err
	}
	if err := cw.Zeros(format.FSPatchSize); err != nil {
		return nil, err
	}
	if err := cw.PutU32(uint32(l.Flags)); err != nil {
		return nil, err
	}

	atEnd := l.Flags.Has(format.FlagBlockInfoAtEnd)
	padded := l.Flags.Has(format.FlagBlockInfoNeedsPadding)
	if !atEnd {
		if hdr.AlignedTable() {
			if err := cw.Align(format.Align16Boundary); err != nil {
				return nil, err
			}
		}
		if _, err := cw.Write(l.Table); err != nil {
			return nil, err
		}
	}
	if padded {
		if err := cw.Align(format.Align16Boundary); err != nil {
			return nil, err
		}
	}
	dataStart, err := cw.Pos()
	if err != nil {
		return nil, err
	}
	if _, err := cw.Write(l.Data); err != nil {
		return nil, err
	}
	if atEnd {
		if _, err := cw.Write(l.Table); err != nil {
			return nil, err
		}
	}

	end, err := cw.Pos()
	if err != nil {
		return nil, err
	}
	if err := PatchHeader(w, patchAt, end-start, int32(len(l.Table)), int32(l.TableSize)); err != nil {
		return nil, err
	}

	fs := &FS{
		Header:                  hdr,
		Size:                    end - start,
		CompressedBlockInfoSize: int32(len(l.Table)),
		BlockInfoSize:           int32(l.TableSize),
		Flags:                   l.Flags,
		Hash:                    l.Hash,
		BlockInfos:              l.BlockInfos,
		Entries:                 l.Entries,
		Start:                   start,
		DataStart:               dataStart,
	}
	if fs.index, err = fs.Entries.Index(); err != nil {
		return nil, err
	}
	logger.Debug("emitted container", logrus.Fields{
		"start":  start,
		"size":   fs.Size,
		"flags":  fs.Flags.String(),
		"chunks": len(fs.BlockInfos),
	})
	return fs, nil
}

// PatchHeader rewrites the size fields of an FS header whose size block
// starts at absolute offset at, then restores the stream position.
func PatchHeader(w io.WriteSeeker, at, size int64, compressedTableSize, tableSize int32) error {
	cw := buf.NewWriter(w, nil)
	back, err := cw.Pos()
	if err != nil {
		return err
	}
	if _, err := cw.Seek(at, io.SeekStart); err != nil {
		return err
	}
	if err := cw.PutI64(size); err != nil {
		return err
	}
	if err := cw.PutI32(compressedTableSize); err != nil {
		return err
	}
	if err := cw.PutI32(tableSize); err != nil {
		return err
	}
	_, err = cw.Seek(back, io.SeekStart)
	return err
}

// Emit encodes and writes a complete container in one call.
func Emit(w io.WriteSeeker, hdr Header, payload io.Reader, size int64, entries Entries, hash [format.HashSize]byte, opts SerializationOptions) (*FS, error) {
	l, err := BuildLayout(payload, size, entries, hash, opts)
	if err != nil {
		return nil, err
	}
	return WriteLayout(w, hdr, l, opts)
}
