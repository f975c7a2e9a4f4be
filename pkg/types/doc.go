// Package types holds the error taxonomy shared by every bundlekit package.
//
// Errors carry a stable category so callers can branch on intent rather than
// text:
//   - ErrKindUnsupported: a recognized variant or codec the engine does not
//     implement (legacy container kinds, encrypted payloads, LZHAM).
//   - ErrKindMalformed: truncated headers, inconsistent block or file
//     tables, a chunk that decodes to the wrong length.
//   - ErrKindIO: the underlying stream failed.
//
// Use errors.Is(err, types.ErrMalformed) and friends to test the category.
//
// This package has no dependencies beyond the standard library.
package types
