package writer

import (
	"io"

	"github.com/joshuapare/bundlekit/internal/buf"
)

// MemWriter captures bundle bytes in memory.
type MemWriter struct {
	Buf []byte
}

// WriteBundle runs emit against an in-memory buffer and keeps the result
// only when emit succeeds.
func (w *MemWriter) WriteBundle(emit func(io.WriteSeeker) error) error {
	out := buf.NewBuffer(nil)
	if err := emit(out); err != nil {
		return err
	}
	w.Buf = out.Bytes()
	return nil
}
