package bundle

import (
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/joshuapare/bundlekit/internal/format"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// OpenSequence parses bundles stored back to back in rs, starting at its
// current position and continuing until the stream is exhausted. After each
// bundle the cursor advances by the bundle's declared length and, when align
// is greater than one, to the next multiple of align.
//
// All bundles share one handler that is released when the last of them is
// closed. On failure the bundles parsed so far are returned with the error.
func OpenSequence(rs io.ReadSeeker, path string, align int64, opts ...Option) ([]*Bundle, error) {
	c := newConfig(opts)
	shared := newSharedHandler(c.handlerFor(path))

	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		_ = shared.releaseUnused()
		return nil, types.IOFailure(err, "tell")
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		_ = shared.releaseUnused()
		return nil, types.IOFailure(err, "seek end")
	}

	var bundles []*Bundle
	for pos < end {
		if _, err := rs.Seek(pos, io.SeekStart); err != nil {
			return finishSequence(bundles, shared, types.IOFailure(err, "seek %d", pos))
		}
		ref := shared.acquire()
		b, err := parse(rs, Tag{Path: path, Offset: pos}, ref, c)
		if err != nil {
			_ = ref.Release()
			return finishSequence(bundles, shared, pkgerrors.WithMessagef(err, "sequence member %d", len(bundles)))
		}
		bundles = append(bundles, b)

		if b.FS.Size <= 0 {
			return finishSequence(bundles, shared, types.Malformed("bundle at %d declares no length", pos))
		}
		pos = b.FS.Start + b.FS.Size
		if align > 1 {
			pos = format.AlignTo(pos, align)
		}
	}
	return finishSequence(bundles, shared, nil)
}

func finishSequence(bundles []*Bundle, shared *sharedHandler, err error) ([]*Bundle, error) {
	_ = shared.releaseUnused()
	return bundles, err
}
