package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/bundlekit/bundle"
)

var (
	extractOut    string
	extractCached bool
)

func init() {
	rootCmd.AddCommand(newExtractCmd())
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <bundle> [path...]",
		Short: "Write bundle files to a directory",
		Long: `The extract command writes the named files, or every file when none is
named, below the output directory. Lookups ignore case.

Example:
  bundlectl extract level0.bundle -o out/
  bundlectl extract level0.bundle CAB-4d1f2a -o out/ --cached`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args)
		},
	}
	cmd.Flags().StringVarP(&extractOut, "out", "o", ".", "Output directory")
	cmd.Flags().
		BoolVar(&extractCached, "cached", false, "Decode each payload once instead of per file")
	return cmd
}

func runExtract(args []string) error {
	var opts []bundle.Option
	if extractCached {
		opts = append(opts, bundle.WithReadStrategy(bundle.Cached))
	}
	bundles, err := openBundles(args[0], opts...)
	if err != nil {
		return err
	}
	defer closeBundles(bundles)

	wanted := args[1:]
	var total int64
	count := 0
	for _, b := range bundles {
		paths := b.ListFiles()
		if len(wanted) > 0 {
			paths = nil
			for _, w := range wanted {
				if e, ok := b.Entry(w); ok {
					paths = append(paths, e.Path)
				}
			}
		}
		for _, p := range paths {
			data, err := b.OpenFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			dest, err := safeJoin(extractOut, p)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return err
			}
			printVerbose("  %s (%s)\n", dest, humanize.IBytes(uint64(len(data))))
			total += int64(len(data))
			count++
		}
	}
	if len(wanted) > 0 && count == 0 {
		return fmt.Errorf("none of %s found", strings.Join(wanted, ", "))
	}
	printInfo("Extracted %d file(s), %s\n", count, humanize.IBytes(uint64(total)))
	return nil
}

// safeJoin maps an entry path below dir. Entry paths such as
// "archive:/CAB-x/CAB-x" keep their structure; ".." components are refused.
func safeJoin(dir, entry string) (string, error) {
	rel := strings.ReplaceAll(entry, ":", "_")
	rel = filepath.FromSlash(rel)
	rel = filepath.Clean(string(filepath.Separator) + rel)
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	if rel == "" || rel == "." {
		return "", fmt.Errorf("entry path %q has no file name", entry)
	}
	for _, part := range strings.Split(filepath.ToSlash(entry), "/") {
		if part == ".." {
			return "", fmt.Errorf("entry path %q escapes the output directory", entry)
		}
	}
	return filepath.Join(dir, rel), nil
}
