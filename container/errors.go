package container

import (
	"errors"
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/joshuapare/bundlekit/pkg/types"
)

// truncated converts a short read into malformed data; other failures keep
// their kind and gain context.
func truncated(err error, what string) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return types.MalformedCause(io.ErrUnexpectedEOF, "%s: truncated", what)
	}
	return pkgerrors.Wrap(err, what)
}
