package bundle

import (
	"bytes"
	"io"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/joshuapare/bundlekit/container"
	"github.com/joshuapare/bundlekit/internal/metrics"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// ErrClosed is returned by reads on a closed bundle.
var ErrClosed = types.IOFailure(os.ErrClosed, "bundle closed")

// FileSource is the lookup surface offered to asset deserializers.
type FileSource interface {
	ListFiles() []string
	OpenFile(path string) ([]byte, error)
	CacheData() error
	ClearCache()
}

var _ FileSource = (*Bundle)(nil)

// Bundle is a parsed FS container plus the means to read its files.
// Header and FS are immutable after open. The cache may be filled and
// dropped any number of times; all methods are safe for concurrent use.
type Bundle struct {
	Header container.Header
	FS     *container.FS
	Tag    Tag

	handler  Handler
	strategy ReadStrategy
	log      *logrus.Entry

	mu     sync.RWMutex
	cache  []byte
	closed bool
}

// Open parses the bundle stored in the file at path. The bundle takes
// ownership of its handler; Close releases it.
func Open(path string, opts ...Option) (*Bundle, error) {
	c := newConfig(opts)
	h := c.handlerFor(path)
	tag := Tag{Path: path}

	rs, err := h.Open(tag)
	if err != nil {
		_ = h.Release()
		return nil, err
	}
	defer rs.Close()

	b, err := parse(rs, tag, h, c)
	if err != nil {
		_ = h.Release()
		return nil, err
	}
	return b, nil
}

// OpenReader parses a bundle at the current position of rs. Later reads go
// through h, which must reopen the same source; tag tells it which one.
func OpenReader(rs io.ReadSeeker, tag Tag, h Handler, opts ...Option) (*Bundle, error) {
	if h == nil {
		return nil, pkgerrors.New("bundle: nil handler")
	}
	return parse(rs, tag, h, newConfig(opts))
}

func parse(rs io.ReadSeeker, tag Tag, h Handler, c *config) (*Bundle, error) {
	fs, err := container.Read(rs)
	if err != nil {
		return nil, pkgerrors.WithMessagef(err, "bundle %q at offset %d", tag.Path, tag.Offset)
	}
	tag.Offset, tag.Size = fs.Start, fs.Size

	b := &Bundle{
		Header:   fs.Header,
		FS:       fs,
		Tag:      tag,
		handler:  h,
		strategy: c.strategy,
		log: c.log.WithFields(logrus.Fields{
			"path":   tag.Path,
			"offset": tag.Offset,
		}),
	}
	if c.strategy == Cached {
		b.mu.Lock()
		err := b.fill(rs)
		b.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	metrics.BundlesOpened.Inc()
	b.log.WithFields(logrus.Fields{
		"entries":  len(fs.Entries),
		"strategy": c.strategy.String(),
	}).Debug("opened bundle")
	return b, nil
}

// Strategy reports the read strategy chosen at open time.
func (b *Bundle) Strategy() ReadStrategy { return b.strategy }

// ListFiles returns every entry path in table order.
func (b *Bundle) ListFiles() []string {
	paths := make([]string, len(b.FS.Entries))
	for i, e := range b.FS.Entries {
		paths[i] = e.Path
	}
	return paths
}

// Entry looks up an entry by path, ignoring case.
func (b *Bundle) Entry(path string) (container.BlockEntry, bool) {
	return b.FS.Lookup(path)
}

// OpenFile returns a copy of the named file's bytes. A path that is not in
// the bundle yields an empty slice and no error.
func (b *Bundle) OpenFile(path string) ([]byte, error) {
	e, ok := b.FS.Lookup(path)
	if !ok {
		return []byte{}, nil
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrClosed
	}
	if b.cache != nil {
		out := bytes.Clone(b.cache[e.Offset:e.End()])
		b.mu.RUnlock()
		return out, nil
	}
	b.mu.RUnlock()

	rs, err := b.handler.Open(b.Tag)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	data, err := b.FS.Payload(rs).ReadRange(e.Offset, e.Size)
	if err != nil {
		return nil, pkgerrors.WithMessagef(err, "read %q", e.Path)
	}
	return data, nil
}

// CacheData decodes the whole payload into memory. It does nothing when the
// payload is already cached.
func (b *Bundle) CacheData() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.cache != nil {
		return nil
	}
	rs, err := b.handler.Open(b.Tag)
	if err != nil {
		return err
	}
	defer rs.Close()
	return b.fill(rs)
}

// fill decodes the payload from rs. Callers hold mu.
func (b *Bundle) fill(rs io.ReadSeeker) error {
	data, err := b.FS.Payload(rs).ReadAll()
	if err != nil {
		return pkgerrors.WithMessage(err, "cache payload")
	}
	b.cache = data
	metrics.CacheBytes.Add(float64(len(data)))
	b.log.WithField("bytes", len(data)).Debug("cached payload")
	return nil
}

// ClearCache drops the cached payload. Later reads decode on demand.
func (b *Bundle) ClearCache() {
	b.mu.Lock()
	b.drop()
	b.mu.Unlock()
}

func (b *Bundle) drop() {
	if b.cache == nil {
		return
	}
	metrics.CacheBytes.Sub(float64(len(b.cache)))
	b.cache = nil
}

// Cached reports whether the payload is held in memory.
func (b *Bundle) Cached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cache != nil
}

// Close drops the cache and releases the handler. Calling it again is a
// no-op.
func (b *Bundle) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.drop()
	b.mu.Unlock()
	return b.handler.Release()
}
