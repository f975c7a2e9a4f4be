// Package writer exposes sinks for bundle emission. Emission seeks back to
// patch the header, so every sink hands the emitter an io.WriteSeeker.
package writer

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Sink receives one emitted bundle.
type Sink interface {
	WriteBundle(emit func(io.WriteSeeker) error) error
}

// FileWriter writes a bundle to a filesystem path atomically.
type FileWriter struct {
	Path string
}

// WriteBundle runs emit against a temp file in the destination directory and
// renames it over Path once emit succeeds. A failed emit leaves Path intact.
func (w *FileWriter) WriteBundle(emit func(io.WriteSeeker) error) error {
	// Create temp file in same directory to ensure atomic rename
	dir := filepath.Dir(w.Path)
	tmpFile, err := os.CreateTemp(dir, ".bundlekit-tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if emitErr := emit(tmpFile); emitErr != nil {
		return emitErr
	}

	if syncErr := tmpFile.Sync(); syncErr != nil {
		return errors.Wrap(syncErr, "sync temp file")
	}

	// Close before rename
	if closeErr := tmpFile.Close(); closeErr != nil {
		return errors.Wrap(closeErr, "close temp file")
	}
	tmpFile = nil // Don't clean up in defer

	if renameErr := os.Rename(tmpPath, w.Path); renameErr != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(renameErr, "rename temp file")
	}

	return nil
}
