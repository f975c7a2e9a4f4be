package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	humanize "github.com/dustin/go-humanize"

	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/container"
)

// repackConfig is the TOML form of the serialization options.
//
//	compression = "lz4hc"
//	table_compression = "lz4"
//	block_size = "128KiB"
//	format_version = 7
//	block_info_at_end = false
//	needs_padding = false
//	store_incompressible = true
//
//	[lzma]
//	dict_size = "8MiB"
//	match_finder = "hc"
//	shrink_dict = false
type repackConfig struct {
	Compression         *codec.Kind `toml:"compression"`
	TableCompression    *codec.Kind `toml:"table_compression"`
	BlockSize           string      `toml:"block_size"`
	FormatVersion       int32       `toml:"format_version"`
	BlockInfoAtEnd      bool        `toml:"block_info_at_end"`
	NeedsPadding        bool        `toml:"needs_padding"`
	StoreIncompressible bool        `toml:"store_incompressible"`
	LZMA                lzmaConfig  `toml:"lzma"`
}

type lzmaConfig struct {
	DictSize    string `toml:"dict_size"`
	MatchFinder string `toml:"match_finder"`
	ShrinkDict  bool   `toml:"shrink_dict"`
}

func loadRepackConfig(path string) (*repackConfig, error) {
	var cfg repackConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown keys %v", path, undecoded)
	}
	return &cfg, nil
}

// apply overlays the configured values on opts.
func (c *repackConfig) apply(opts *container.SerializationOptions) error {
	if c.Compression != nil {
		opts.PayloadCompression = *c.Compression
	}
	if c.TableCompression != nil {
		opts.TableCompression = *c.TableCompression
	}
	if c.BlockSize != "" {
		n, err := humanize.ParseBytes(c.BlockSize)
		if err != nil {
			return fmt.Errorf("block_size: %w", err)
		}
		opts.BlockSize = int(n)
	}
	if c.FormatVersion != 0 {
		opts.TargetFormatVersion = c.FormatVersion
	}
	opts.BlockInfoAtEnd = opts.BlockInfoAtEnd || c.BlockInfoAtEnd
	opts.NeedsPadding = opts.NeedsPadding || c.NeedsPadding
	opts.StoreIncompressible = opts.StoreIncompressible || c.StoreIncompressible

	if c.LZMA.DictSize != "" {
		n, err := humanize.ParseBytes(c.LZMA.DictSize)
		if err != nil {
			return fmt.Errorf("lzma.dict_size: %w", err)
		}
		opts.Encoder.LZMA.DictSize = int(n)
	}
	opts.Encoder.LZMA.ShrinkDict = opts.Encoder.LZMA.ShrinkDict || c.LZMA.ShrinkDict
	switch c.LZMA.MatchFinder {
	case "":
	case "hc":
		opts.Encoder.LZMA.MatchFinder = codec.MatchHashChain
	case "bt":
		opts.Encoder.LZMA.MatchFinder = codec.MatchBinaryTree
	default:
		return fmt.Errorf("lzma.match_finder: unknown finder %q", c.LZMA.MatchFinder)
	}
	return nil
}

func writeSampleConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	lz4hc, lz4 := codec.LZ4HC, codec.LZ4
	return toml.NewEncoder(f).Encode(repackConfig{
		Compression:      &lz4hc,
		TableCompression: &lz4,
		BlockSize:        "128KiB",
		FormatVersion:    7,
	})
}
