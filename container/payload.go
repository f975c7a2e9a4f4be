package container

import (
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/internal/buf"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// PayloadReader reconstructs ranges of the flattened payload by decoding
// only the chunks a range overlaps. It is not safe for concurrent use; it
// moves the shared stream position.
type PayloadReader struct {
	r     io.ReadSeeker
	start int64
	infos BlockInfos
}

// NewPayloadReader reads chunks described by infos from r, the first one
// starting at absolute offset start.
func NewPayloadReader(r io.ReadSeeker, start int64, infos BlockInfos) *PayloadReader {
	return &PayloadReader{r: r, start: start, infos: infos}
}

// Size is the flattened payload length.
func (p *PayloadReader) Size() int64 { return p.infos.TotalSize() }

// ReadRange returns size bytes of the flattened payload starting at off.
// Chunks ending at or before off are skipped without decoding.
func (p *PayloadReader) ReadRange(off, size int64) ([]byte, error) {
	if !buf.InRange(off, size, p.Size()) {
		return nil, types.Malformed("range [%d,+%d) exceeds payload of %d bytes", off, size, p.Size())
	}
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}

	first := p.infos.Locate(off)
	if first < 0 {
		return nil, types.Malformed("offset %d not covered by any chunk", off)
	}
	if _, err := p.r.Seek(p.start+p.infos[first].DataOffset, io.SeekStart); err != nil {
		return nil, types.IOFailure(err, "seek to chunk %d", first)
	}

	end := off + size
	filled := int64(0)
	for i := first; i < len(p.infos) && filled < size; i++ {
		info := p.infos[i]
		chunk, err := p.readChunk(i, info)
		if err != nil {
			return nil, err
		}
		lo := max(off, info.Offset) - info.Offset
		hi := min(end, info.End()) - info.Offset
		if lo < hi {
			filled += int64(copy(out[filled:], chunk[lo:hi]))
		}
	}
	if filled != size {
		return nil, types.Malformed("chunks yielded %d of %d requested bytes", filled, size)
	}
	return out, nil
}

// ReadAll decodes the whole payload.
func (p *PayloadReader) ReadAll() ([]byte, error) {
	return p.ReadRange(0, p.Size())
}

// WriteTo streams the decoded payload to w one chunk at a time.
func (p *PayloadReader) WriteTo(w io.Writer) (int64, error) {
	if _, err := p.r.Seek(p.start, io.SeekStart); err != nil {
		return 0, types.IOFailure(err, "seek to payload")
	}
	var written int64
	for i, info := range p.infos {
		chunk, err := p.readChunk(i, info)
		if err != nil {
			return written, err
		}
		if len(chunk) == 0 {
			continue
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, pkgerrors.Wrap(err, "write payload")
		}
	}
	return written, nil
}

func (p *PayloadReader) readChunk(i int, info BlockInfo) ([]byte, error) {
	kind := info.Compression()
	if !kind.Supported() {
		return nil, types.Unsupported("chunk %d uses compression %s", i, kind)
	}
	chunk, err := codec.ReadChunk(p.r, kind, int(info.CompressedSize), int(info.DecompressedSize))
	if err != nil {
		return nil, pkgerrors.WithMessagef(err, "chunk %d", i)
	}
	return chunk, nil
}
