// Package catalog resolves virtual paths across many bundle files. Files are
// opened concurrently; a file that fails to parse is recorded and skipped so
// one bad bundle never hides the others.
package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/bundlekit/assetcache"
	"github.com/joshuapare/bundlekit/bundle"
	"github.com/joshuapare/bundlekit/container"
	"github.com/joshuapare/bundlekit/internal/format"
	"github.com/joshuapare/bundlekit/internal/logger"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// sniffLen is enough for the signature and version of every variant.
const sniffLen = 32

// DefaultConcurrency bounds parallel opens when Options leaves it unset.
const DefaultConcurrency = 4

// Options configures Load.
type Options struct {
	// Concurrency bounds how many files are parsed at once.
	Concurrency int
	// Alignment is passed to bundle.OpenSequence for every file.
	Alignment int64
	// Cache memoises resolved file bytes when set.
	Cache *assetcache.Cache
	// BundleOptions are applied to every opened bundle.
	BundleOptions []bundle.Option
}

// Failure records a file that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

// Catalog is an ordered set of bundles. Lookups search bundles in load
// order, which follows the order of the paths given to Load.
type Catalog struct {
	bundles  []*bundle.Bundle
	failures []Failure
	cache    *assetcache.Cache
	log      *logrus.Entry
}

var _ bundle.FileSource = (*Catalog)(nil)

// Load opens every path. Per-file failures are collected in Failures;
// Load itself only fails when ctx is cancelled.
func Load(ctx context.Context, paths []string, opts Options) (*Catalog, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	align := opts.Alignment
	if align <= 0 {
		align = 1
	}

	type result struct {
		bundles []*bundle.Bundle
		err     error
	}
	results := make([]result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bs, err := openFile(path, align, opts.BundleOptions)
			results[i] = result{bundles: bs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, r := range results {
			closeAll(r.bundles)
		}
		return nil, err
	}

	c := &Catalog{
		cache: opts.Cache,
		log:   logger.WithFields(logrus.Fields{"component": "catalog"}),
	}
	for i, r := range results {
		c.bundles = append(c.bundles, r.bundles...)
		if r.err != nil {
			c.failures = append(c.failures, Failure{Path: paths[i], Err: r.err})
			c.log.WithError(r.err).WithField("path", paths[i]).Warn("skipping bundle file")
		}
	}
	c.log.WithFields(logrus.Fields{
		"files":    len(paths),
		"bundles":  len(c.bundles),
		"failures": len(c.failures),
	}).Debug("catalog loaded")
	return c, nil
}

func openFile(path string, align int64, opts []bundle.Option) ([]*bundle.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.IOFailure(err, "open %s", path)
	}
	defer f.Close()

	prefix := make([]byte, sniffLen)
	n, err := io.ReadFull(f, prefix)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, types.IOFailure(err, "read %s", path)
	}
	kind, _, ok := container.Sniff(prefix[:n])
	if !ok {
		return nil, types.Unsupported("%s is not a bundle", path)
	}
	if kind != format.KindFS {
		return nil, types.Unsupported("%s holds a %s container", path, kind)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, types.IOFailure(err, "rewind %s", path)
	}
	return bundle.OpenSequence(f, path, align, opts...)
}

// Failures lists the files that could not be loaded, in path order.
func (c *Catalog) Failures() []Failure { return c.failures }

// Bundles returns the loaded bundles in load order.
func (c *Catalog) Bundles() []*bundle.Bundle { return c.bundles }

// ListFiles returns every distinct path in load order. A path shadowed by an
// earlier bundle is listed once.
func (c *Catalog) ListFiles() []string {
	seen := map[string]bool{}
	var out []string
	for _, b := range c.bundles {
		for _, p := range b.ListFiles() {
			key := container.FoldPath(p)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, p)
		}
	}
	return out
}

// Locate returns the first bundle holding path.
func (c *Catalog) Locate(path string) (*bundle.Bundle, bool) {
	for _, b := range c.bundles {
		if _, ok := b.Entry(path); ok {
			return b, true
		}
	}
	return nil, false
}

// OpenFile resolves path against the bundles in load order. A path no
// bundle holds yields an empty slice and no error. With a cache configured,
// the returned bytes are shared with it and must not be modified.
func (c *Catalog) OpenFile(path string) ([]byte, error) {
	b, ok := c.Locate(path)
	if !ok {
		return []byte{}, nil
	}
	if c.cache == nil {
		return b.OpenFile(path)
	}
	e, _ := b.Entry(path)
	fp := assetcache.KeyFingerprint(b.Tag.Path, strconv.FormatInt(b.Tag.Offset, 10), e.Path)
	return c.cache.Load(fp, func() ([]byte, error) {
		return b.OpenFile(path)
	})
}

// CacheData decodes every bundle's payload concurrently.
func (c *Catalog) CacheData() error {
	var g errgroup.Group
	g.SetLimit(DefaultConcurrency)
	for _, b := range c.bundles {
		g.Go(func() error {
			return pkgerrors.WithMessagef(b.CacheData(), "cache %s", b.Tag.Path)
		})
	}
	return g.Wait()
}

// ClearCache drops every bundle cache and the asset cache.
func (c *Catalog) ClearCache() {
	for _, b := range c.bundles {
		b.ClearCache()
	}
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Close closes every bundle.
func (c *Catalog) Close() error {
	var errs []error
	for _, b := range c.bundles {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeAll(bs []*bundle.Bundle) {
	for _, b := range bs {
		_ = b.Close()
	}
}
