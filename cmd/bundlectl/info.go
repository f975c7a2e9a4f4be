package main

import (
	"fmt"
	"sort"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/bundlekit/bundle"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <bundle>",
		Short: "Report header and layout metadata",
		Long: `The info command parses a bundle and reports its header strings,
container flags, block table and payload sizes.

Example:
  bundlectl info level0.bundle
  bundlectl info data.unity3d --align 16 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type bundleInfo struct {
	Offset         int64          `json:"offset"`
	Size           int64          `json:"size"`
	Signature      string         `json:"signature"`
	FormatVersion  int32          `json:"format_version"`
	EngineVersion  string         `json:"engine_version"`
	EngineRevision string         `json:"engine_revision"`
	Flags          string         `json:"flags"`
	Chunks         int            `json:"chunks"`
	ChunkCodecs    map[string]int `json:"chunk_codecs"`
	PayloadSize    int64          `json:"payload_size"`
	StoredSize     int64          `json:"stored_size"`
	Files          int            `json:"files"`
}

func describe(b *bundle.Bundle) bundleInfo {
	fs := b.FS
	codecs := map[string]int{}
	for _, info := range fs.BlockInfos {
		codecs[info.Compression().String()]++
	}
	return bundleInfo{
		Offset:         b.Tag.Offset,
		Size:           fs.Size,
		Signature:      b.Header.Signature,
		FormatVersion:  b.Header.FormatVersion,
		EngineVersion:  b.Header.EngineVersion,
		EngineRevision: b.Header.EngineRevision,
		Flags:          fs.Flags.String(),
		Chunks:         len(fs.BlockInfos),
		ChunkCodecs:    codecs,
		PayloadSize:    fs.BlockInfos.TotalSize(),
		StoredSize:     fs.BlockInfos.CompressedSize(),
		Files:          len(fs.Entries),
	}
}

func runInfo(args []string) error {
	path := args[0]
	printVerbose("Opening bundle: %s\n", path)

	bundles, err := openBundles(path)
	if err != nil {
		return err
	}
	defer closeBundles(bundles)

	infos := make([]bundleInfo, len(bundles))
	for i, b := range bundles {
		infos[i] = describe(b)
	}
	if jsonOut {
		return printJSON(infos)
	}

	for i, info := range infos {
		printInfo("\nBundle %d of %d (offset %d):\n", i+1, len(infos), info.Offset)
		printInfo("  Signature: %s v%d\n", info.Signature, info.FormatVersion)
		printInfo("  Engine: %s (%s)\n", info.EngineVersion, info.EngineRevision)
		printInfo("  Size: %s\n", humanize.IBytes(uint64(info.Size)))
		printInfo("  Flags: %s\n", info.Flags)
		printInfo("  Chunks: %d (%s)\n", info.Chunks, codecSummary(info.ChunkCodecs))
		printInfo("  Payload: %s stored as %s\n",
			humanize.IBytes(uint64(info.PayloadSize)), humanize.IBytes(uint64(info.StoredSize)))
		printInfo("  Files: %s\n", humanize.Comma(int64(info.Files)))
	}
	return nil
}

func codecSummary(codecs map[string]int) string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s:%d", name, codecs[name])
	}
	return out
}
