// Package mmfile maps bundle files into memory so several readers can share
// one copy of the bytes. Platforms without mmap read the file instead.
package mmfile

func noop() error { return nil }
