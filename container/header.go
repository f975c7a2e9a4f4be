package container

import (
	"github.com/joshuapare/bundlekit/internal/buf"
	"github.com/joshuapare/bundlekit/internal/format"
	"github.com/joshuapare/bundlekit/pkg/types"
)

// Header is the outer bundle header shared by every container variant.
type Header struct {
	Format         format.Kind
	Signature      string
	FormatVersion  int32
	EngineVersion  string
	EngineRevision string
}

// NewFSHeader returns a header for an FS container.
func NewFSHeader(version int32, engineVersion, engineRevision string) Header {
	return Header{
		Format:         format.KindFS,
		Signature:      format.SignatureFS,
		FormatVersion:  version,
		EngineVersion:  engineVersion,
		EngineRevision: engineRevision,
	}
}

// ReadHeader parses the outer header. Unknown signatures fail with
// types.ErrUnsupported; the legacy variants parse but are rejected later by
// RequireFS.
func ReadHeader(r *buf.Reader) (Header, error) {
	var h Header
	sig, err := r.CString()
	if err != nil {
		return h, truncated(err, "header signature")
	}
	h.Signature = sig
	h.Format = format.KindFromSignature(sig)
	if h.Format == format.KindUnknown {
		return h, types.Unsupported("unknown container signature %q", sig)
	}
	if h.FormatVersion, err = r.I32(); err != nil {
		return h, truncated(err, "header version")
	}
	if h.EngineVersion, err = r.CString(); err != nil {
		return h, truncated(err, "header engine version")
	}
	if h.EngineRevision, err = r.CString(); err != nil {
		return h, truncated(err, "header engine revision")
	}
	return h, nil
}

// RequireFS fails with types.ErrUnsupported for every variant but FS.
func (h Header) RequireFS() error {
	switch h.Format {
	case format.KindFS:
		return nil
	case format.KindArchive, format.KindWeb, format.KindRaw:
		return types.Unsupported("%s containers are not implemented", h.Format)
	}
	return types.Unsupported("unknown container kind %q", h.Signature)
}

// AlignedTable reports whether the block-info table of a header-adjacent
// layout starts on a 16-byte boundary.
func (h Header) AlignedTable() bool {
	return h.FormatVersion >= format.AlignedHeaderMinVersion
}

// WriteHeader emits h.
func WriteHeader(w *buf.Writer, h Header) error {
	sig := h.Signature
	if sig == "" {
		sig = h.Format.Signature()
	}
	if format.KindFromSignature(sig) == format.KindUnknown {
		return types.Unsupported("unknown container signature %q", sig)
	}
	if err := w.PutCString(sig); err != nil {
		return err
	}
	if err := w.PutI32(h.FormatVersion); err != nil {
		return err
	}
	if err := w.PutCString(h.EngineVersion); err != nil {
		return err
	}
	return w.PutCString(h.EngineRevision)
}

// Sniff inspects the first bytes of a source and reports the container kind
// and format version without a seekable stream. ok is false when the prefix
// does not start with a known signature followed by a version.
func Sniff(prefix []byte) (kind format.Kind, version int32, ok bool) {
	sig, n, found := buf.CString(prefix)
	if !found {
		return format.KindUnknown, 0, false
	}
	kind = format.KindFromSignature(sig)
	if kind == format.KindUnknown || len(prefix) < n+4 {
		return kind, 0, false
	}
	return kind, buf.I32BE(prefix[n:]), true
}
