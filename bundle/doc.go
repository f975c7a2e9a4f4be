// Package bundle is the read-and-repack façade over an FS container. A
// Bundle owns the parsed header and block tables, resolves virtual paths to
// bytes and optionally keeps the whole decompressed payload in memory.
//
// Bytes are fetched through a Handler, which reopens the underlying source
// on demand. Several bundles parsed from one concatenated source share a
// single reference-counted handler.
//
// Example:
//
//	b, err := bundle.Open("level0.bundle", bundle.WithReadStrategy(bundle.Cached))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	for _, p := range b.ListFiles() {
//	    data, _ := b.OpenFile(p)
//	    fmt.Println(p, len(data))
//	}
package bundle
