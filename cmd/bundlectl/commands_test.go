package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/bundlekit/bundle"
	"github.com/joshuapare/bundlekit/codec"
	"github.com/joshuapare/bundlekit/internal/format"
)

var (
	levelFiles = []bundle.File{
		{Path: "CAB-level0", Data: bytes.Repeat([]byte("level geometry "), 200), Flags: 4},
		{Path: "CAB-level0.resS", Data: []byte("texture bytes")},
	}
	sharedFiles = []bundle.File{
		{Path: "CAB-shared", Data: []byte("shared assets")},
	}
)

func TestInfoCommand(t *testing.T) {
	resetGlobals(t)
	path := writeTestBundles(t, levelFiles)

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"UnityFS v7", "2019.4.40f1", "combined", "Files: 2"})
	assertNotContains(t, out, []string{"Bundle 2"})
}

func TestInfoCommandJSONSequence(t *testing.T) {
	resetGlobals(t)
	path := writeTestBundles(t, levelFiles, sharedFiles)
	jsonOut = true
	align = 16

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertJSON(t, out)

	var infos []bundleInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, 2, infos[0].Files)
	assert.Equal(t, 1, infos[1].Files)
	assert.Zero(t, infos[0].Offset)
	assert.Zero(t, infos[1].Offset%16)
	assert.Equal(t, int64(len(levelFiles[0].Data)+len(levelFiles[1].Data)), infos[0].PayloadSize)
}

func TestInfoCommandMissingFile(t *testing.T) {
	resetGlobals(t)
	_, err := captureOutput(t, func() error {
		return runInfo([]string{filepath.Join(t.TempDir(), "nope.bundle")})
	})
	require.Error(t, err)
}

func TestLsCommand(t *testing.T) {
	resetGlobals(t)
	path := writeTestBundles(t, levelFiles)

	tests := []struct {
		name        string
		long        bool
		wantContain []string
	}{
		{name: "short", wantContain: []string{"CAB-level0\n", "CAB-level0.resS\n"}},
		{name: "long", long: true, wantContain: []string{"0x04 ", "13 B", "CAB-level0.resS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lsLong = tt.long
			defer func() { lsLong = false }()
			out, err := captureOutput(t, func() error { return runLs([]string{path}) })
			require.NoError(t, err)
			assertContains(t, out, tt.wantContain)
		})
	}
}

func TestExtractCommand(t *testing.T) {
	resetGlobals(t)
	path := writeTestBundles(t, levelFiles)

	for _, cached := range []bool{false, true} {
		dir := t.TempDir()
		extractOut, extractCached = dir, cached
		out, err := captureOutput(t, func() error { return runExtract([]string{path}) })
		require.NoError(t, err)
		assertContains(t, out, []string{"Extracted 2 file(s)"})

		for _, f := range levelFiles {
			got, err := os.ReadFile(filepath.Join(dir, f.Path))
			require.NoError(t, err)
			assert.Equal(t, f.Data, got, "cached=%v %s", cached, f.Path)
		}
	}
	extractOut, extractCached = ".", false
}

func TestExtractNamedFiles(t *testing.T) {
	resetGlobals(t)
	path := writeTestBundles(t, levelFiles)
	dir := t.TempDir()
	extractOut = dir
	defer func() { extractOut = "." }()

	_, err := captureOutput(t, func() error { return runExtract([]string{path, "cab-LEVEL0.ress"}) })
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "CAB-level0.resS"))
	require.NoError(t, err)
	assert.Equal(t, []byte("texture bytes"), got)
	_, err = os.Stat(filepath.Join(dir, "CAB-level0"))
	assert.True(t, os.IsNotExist(err))

	_, err = captureOutput(t, func() error { return runExtract([]string{path, "missing"}) })
	require.Error(t, err)
}

func TestSafeJoin(t *testing.T) {
	tests := []struct {
		entry   string
		want    string
		wantErr bool
	}{
		{entry: "CAB-1", want: filepath.Join("out", "CAB-1")},
		{entry: "archive:/CAB-1/CAB-1", want: filepath.Join("out", "archive_", "CAB-1", "CAB-1")},
		{entry: "/abs/file", want: filepath.Join("out", "abs", "file")},
		{entry: "../escape", wantErr: true},
		{entry: "a/../../escape", wantErr: true},
		{entry: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			got, err := safeJoin("out", tt.entry)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepackCommand(t *testing.T) {
	resetGlobals(t)
	in := writeTestBundles(t, levelFiles, sharedFiles)
	out := filepath.Join(t.TempDir(), "repacked.bundle")
	align = 16

	cmd := newRepackCmd()
	require.NoError(t, cmd.Flags().Set("compression", "lzma"))
	require.NoError(t, cmd.Flags().Set("info-at-end", "true"))
	opts, err := repackOptions(cmd)
	require.NoError(t, err)
	assert.Equal(t, codec.LZMA, opts.PayloadCompression)
	assert.Equal(t, codec.LZ4HC, opts.TableCompression)
	assert.True(t, opts.BlockInfoAtEnd)

	stdout, err := captureOutput(t, func() error { return runRepack([]string{in, out}, opts) })
	require.NoError(t, err)
	assertContains(t, stdout, []string{"Wrote " + out})

	bundles, err := openBundles(out)
	require.NoError(t, err)
	defer closeBundles(bundles)
	require.Len(t, bundles, 2)

	for i, files := range [][]bundle.File{levelFiles, sharedFiles} {
		b := bundles[i]
		assert.True(t, b.FS.Flags.Has(format.FlagBlockInfoAtEnd))
		for _, info := range b.FS.BlockInfos {
			assert.Equal(t, codec.LZMA, info.Compression())
		}
		for _, f := range files {
			got, err := b.OpenFile(f.Path)
			require.NoError(t, err)
			assert.Equal(t, f.Data, got)
		}
	}
}

func TestRepackOptionsFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "repack.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
compression = "lz4"
table_compression = "none"
block_size = "64KiB"
store_incompressible = true

[lzma]
dict_size = "1MiB"
match_finder = "bt"
shrink_dict = true
`), 0o644))

	cmd := newRepackCmd()
	require.NoError(t, cmd.Flags().Set("config", cfgPath))
	require.NoError(t, cmd.Flags().Set("table", "lz4hc"))
	defer func() { repackConfigPath = "" }()

	opts, err := repackOptions(cmd)
	require.NoError(t, err)
	assert.Equal(t, codec.LZ4, opts.PayloadCompression)
	assert.Equal(t, codec.LZ4HC, opts.TableCompression, "flag overrides the file")
	assert.Equal(t, 64<<10, opts.BlockSize)
	assert.True(t, opts.StoreIncompressible)
	assert.Equal(t, 1<<20, opts.Encoder.LZMA.DictSize)
	assert.Equal(t, codec.MatchBinaryTree, opts.Encoder.LZMA.MatchFinder)
	assert.True(t, opts.Encoder.LZMA.ShrinkDict)
}

func TestRepackConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown key", body: "compresion = \"lz4\"\n"},
		{name: "unknown codec", body: "compression = \"zstd\"\n"},
		{name: "bad block size", body: "block_size = \"lots\"\n"},
		{name: "bad finder", body: "[lzma]\nmatch_finder = \"suffix\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(dir, tt.name+".toml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(tt.body), 0o644))
			cmd := newRepackCmd()
			require.NoError(t, cmd.Flags().Set("config", cfgPath))
			defer func() { repackConfigPath = "" }()
			_, err := repackOptions(cmd)
			require.Error(t, err)
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	require.NoError(t, writeSampleConfig(path))

	cfg, err := loadRepackConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Compression)
	assert.Equal(t, codec.LZ4HC, *cfg.Compression)
	require.NotNil(t, cfg.TableCompression)
	assert.Equal(t, codec.LZ4, *cfg.TableCompression)
	assert.Equal(t, "128KiB", cfg.BlockSize)
}
