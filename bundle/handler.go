package bundle

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/joshuapare/bundlekit/internal/mmfile"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// Tag identifies the byte source a bundle was parsed from and where in it
// the bundle lives.
type Tag struct {
	Path   string
	Offset int64
	Size   int64
}

// Handler reopens a byte source. Every Open returns an independent stream
// over the whole source; the caller closes it. Release frees whatever the
// handler holds and is called once the last bundle using it is closed.
type Handler interface {
	Open(tag Tag) (io.ReadSeekCloser, error)
	Release() error
}

type byteStream struct{ *bytes.Reader }

func (byteStream) Close() error { return nil }

func newByteStream(b []byte) io.ReadSeekCloser { return byteStream{bytes.NewReader(b)} }

// FileHandler opens the tagged path on every call.
type FileHandler struct {
	// Path overrides the tag's path when set.
	Path string
}

func (h *FileHandler) Open(tag Tag) (io.ReadSeekCloser, error) {
	path := h.Path
	if path == "" {
		path = tag.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.IOFailure(err, "open %s", path)
	}
	return f, nil
}

func (h *FileHandler) Release() error { return nil }

// MemoryHandler serves a byte slice it does not own.
type MemoryHandler struct {
	Data []byte
}

func (h *MemoryHandler) Open(Tag) (io.ReadSeekCloser, error) {
	return newByteStream(h.Data), nil
}

func (h *MemoryHandler) Release() error { return nil }

// MmapHandler maps the file once and hands out readers over the mapping.
// Release unmaps it; a later Open maps the file again.
type MmapHandler struct {
	Path string

	mu      sync.Mutex
	data    []byte
	cleanup func() error
}

// NewMmapHandler returns a handler that maps path lazily.
func NewMmapHandler(path string) *MmapHandler {
	return &MmapHandler{Path: path}
}

func (h *MmapHandler) Open(tag Tag) (io.ReadSeekCloser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cleanup == nil {
		path := h.Path
		if path == "" {
			path = tag.Path
		}
		data, cleanup, err := mmfile.Map(path)
		if err != nil {
			return nil, types.IOFailure(err, "map %s", path)
		}
		h.data, h.cleanup = data, cleanup
	}
	return newByteStream(h.data), nil
}

func (h *MmapHandler) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cleanup == nil {
		return nil
	}
	err := h.cleanup()
	h.data, h.cleanup = nil, nil
	return err
}

// sharedHandler releases its inner handler when the last holder lets go.
type sharedHandler struct {
	inner Handler

	mu   sync.Mutex
	refs int
	used bool
}

func newSharedHandler(inner Handler) *sharedHandler {
	return &sharedHandler{inner: inner}
}

func (s *sharedHandler) acquire() Handler {
	s.mu.Lock()
	s.refs++
	s.used = true
	s.mu.Unlock()
	return &sharedRef{parent: s}
}

// releaseUnused releases the inner handler if nobody ever acquired it.
func (s *sharedHandler) releaseUnused() error {
	s.mu.Lock()
	unused := !s.used
	s.mu.Unlock()
	if unused {
		return s.inner.Release()
	}
	return nil
}

func (s *sharedHandler) release() error {
	s.mu.Lock()
	s.refs--
	last := s.refs <= 0
	s.mu.Unlock()
	if last {
		return s.inner.Release()
	}
	return nil
}

// sharedRef is one holder's view of a sharedHandler. Releasing it twice
// only drops one reference.
type sharedRef struct {
	parent *sharedHandler
	once   sync.Once
}

func (r *sharedRef) Open(tag Tag) (io.ReadSeekCloser, error) { return r.parent.inner.Open(tag) }

func (r *sharedRef) Release() error {
	var err error
	r.once.Do(func() { err = r.parent.release() })
	return err
}
