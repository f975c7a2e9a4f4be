package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/bundlekit/bundle"
	"github.com/joshuapare/bundlekit/container"
	"github.com/joshuapare/bundlekit/internal/buf"
)

// writeTestBundles packs each file set as one bundle, aligned to 16 bytes,
// into a temp file and returns its path.
func writeTestBundles(t *testing.T, sets ...[]bundle.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bundle")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	w := buf.NewWriter(f, nil)
	hdr := container.NewFSHeader(7, "5.x.x", "2019.4.40f1")
	for i, files := range sets {
		if i > 0 {
			if err := w.Align(16); err != nil {
				t.Fatalf("align: %v", err)
			}
		}
		if _, err := bundle.Build(f, hdr, files, container.DefaultSerializationOptions()); err != nil {
			t.Fatalf("build bundle %d: %v", i, err)
		}
	}
	return path
}

// resetGlobals restores the persistent flags after a test changes them.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		verbose, quiet, jsonOut = false, false, false
		align, useMmap = 1, false
	})
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan []byte)
	go func() {
		var out bytes.Buffer
		_, _ = out.ReadFrom(r)
		done <- out.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
