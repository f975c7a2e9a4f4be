package bundle

import (
	"bytes"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/bundlekit/container"
	"github.com/joshuapare/bundlekit/internal/format"
)

// File is a named blob to pack into a new bundle.
type File struct {
	Path  string
	Data  []byte
	Flags uint32
}

// Build emits a bundle holding files, laid out back to back in the given
// order, at the current position of w.
func Build(w io.WriteSeeker, hdr container.Header, files []File, opts container.SerializationOptions) (*container.FS, error) {
	entries := make(container.Entries, len(files))
	readers := make([]io.Reader, len(files))
	var off int64
	for i, f := range files {
		entries[i] = container.BlockEntry{Offset: off, Size: int64(len(f.Data)), Flags: f.Flags, Path: f.Path}
		readers[i] = bytes.NewReader(f.Data)
		off += int64(len(f.Data))
	}
	var hash [format.HashSize]byte
	return container.Emit(w, hdr, io.MultiReader(readers...), off, entries, hash, opts)
}

// WriteTo re-emits the bundle to w with new serialization options. Header
// strings, hash and the entry table are kept. A cached payload is reused;
// otherwise chunks are decoded from the source while the new ones encode.
func (b *Bundle) WriteTo(w io.WriteSeeker, opts container.SerializationOptions) (*container.FS, error) {
	b.mu.RLock()
	cache, closed := b.cache, b.closed
	b.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	total := b.FS.BlockInfos.TotalSize()
	if cache != nil {
		return container.Emit(w, b.Header, bytes.NewReader(cache), total, b.FS.Entries, b.FS.Hash, opts)
	}

	rs, err := b.handler.Open(b.Tag)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	pr, pw := io.Pipe()
	var g errgroup.Group
	g.Go(func() error {
		_, err := b.FS.Payload(rs).WriteTo(pw)
		pw.CloseWithError(err)
		return err
	})
	fs, emitErr := container.Emit(w, b.Header, pr, total, b.FS.Entries, b.FS.Hash, opts)
	pr.CloseWithError(emitErr)
	decodeErr := g.Wait()
	if emitErr != nil {
		return nil, emitErr
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	b.log.WithField("size", fs.Size).Debug("repacked bundle")
	return fs, nil
}
