package main

import (
	"fmt"
	"io"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/container"
	"github.com/joshuapare/bundlekit/internal/buf"
	"github.com/joshuapare/bundlekit/internal/writer"
)

var (
	repackConfigPath  string
	repackSample      string
	repackCompression string
	repackTable       string
	repackBlockSize   string
	repackVersion     int32
	repackAtEnd       bool
	repackPadding     bool
	repackStoreRaw    bool
)

func init() {
	rootCmd.AddCommand(newRepackCmd())
}

func newRepackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repack <in> <out>",
		Short: "Re-emit a bundle with new compression settings",
		Long: `The repack command decodes every bundle in <in> and writes it to <out>
with the requested settings. Header strings, hash and file table are kept.
Settings come from the defaults, then --config, then explicit flags.

Example:
  bundlectl repack level0.bundle level0.lzma.bundle --compression lzma
  bundlectl repack level0.bundle out.bundle --config repack.toml
  bundlectl repack --sample-config repack.toml`,
		Args: func(cmd *cobra.Command, args []string) error {
			if repackSample != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if repackSample != "" {
				return writeSampleConfig(repackSample)
			}
			opts, err := repackOptions(cmd)
			if err != nil {
				return err
			}
			return runRepack(args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&repackConfigPath, "config", "", "TOML file with serialization settings")
	f.StringVar(&repackSample, "sample-config", "", "Write a sample TOML config to this path and exit")
	f.StringVar(&repackCompression, "compression", "lz4hc", "Payload codec: none, lzma, lz4, lz4hc")
	f.StringVar(&repackTable, "table", "lz4hc", "Block table codec: none, lzma, lz4, lz4hc")
	f.StringVar(&repackBlockSize, "block-size", "128KiB", "Chunk size for lz4 payloads")
	f.Int32Var(&repackVersion, "format-version", 7, "Format version written to the header")
	f.BoolVar(&repackAtEnd, "info-at-end", false, "Store the block table after the payload")
	f.BoolVar(&repackPadding, "padding", false, "Align the payload to 16 bytes")
	f.BoolVar(&repackStoreRaw, "store-incompressible", false, "Store chunks that do not shrink")
	return cmd
}

// repackOptions layers defaults, the config file and explicitly set flags.
func repackOptions(cmd *cobra.Command) (container.SerializationOptions, error) {
	opts := container.DefaultSerializationOptions()
	if repackConfigPath != "" {
		cfg, err := loadRepackConfig(repackConfigPath)
		if err != nil {
			return opts, err
		}
		if err := cfg.apply(&opts); err != nil {
			return opts, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("compression") {
		k, err := codec.ParseKind(repackCompression)
		if err != nil {
			return opts, err
		}
		opts.PayloadCompression = k
	}
	if flags.Changed("table") {
		k, err := codec.ParseKind(repackTable)
		if err != nil {
			return opts, err
		}
		opts.TableCompression = k
	}
	if flags.Changed("block-size") {
		n, err := humanize.ParseBytes(repackBlockSize)
		if err != nil {
			return opts, fmt.Errorf("block-size: %w", err)
		}
		opts.BlockSize = int(n)
	}
	if flags.Changed("format-version") {
		opts.TargetFormatVersion = repackVersion
	}
	if flags.Changed("info-at-end") {
		opts.BlockInfoAtEnd = repackAtEnd
	}
	if flags.Changed("padding") {
		opts.NeedsPadding = repackPadding
	}
	if flags.Changed("store-incompressible") {
		opts.StoreIncompressible = repackStoreRaw
	}
	return opts, opts.Validate()
}

func runRepack(args []string, opts container.SerializationOptions) error {
	in, out := args[0], args[1]
	bundles, err := openBundles(in)
	if err != nil {
		return err
	}
	defer closeBundles(bundles)

	printVerbose("Repacking %d bundle(s) with %s payload, %s table\n",
		len(bundles), opts.PayloadCompression, opts.TableCompression)

	var written int64
	sink := &writer.FileWriter{Path: out}
	err = sink.WriteBundle(func(ws io.WriteSeeker) error {
		w := buf.NewWriter(ws, nil)
		for i, b := range bundles {
			if i > 0 {
				if err := w.Align(align); err != nil {
					return err
				}
			}
			fs, err := b.WriteTo(ws, opts)
			if err != nil {
				return fmt.Errorf("bundle %d: %w", i, err)
			}
			written = fs.Start + fs.Size
		}
		return nil
	})
	if err != nil {
		return err
	}
	printInfo("Wrote %s (%s)\n", out, humanize.IBytes(uint64(written)))
	return nil
}
