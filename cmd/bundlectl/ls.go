package main

import (
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var lsLong bool

func init() {
	rootCmd.AddCommand(newLsCmd())
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <bundle>",
		Short: "List the files stored in a bundle",
		Long: `The ls command prints every file path in table order.

Example:
  bundlectl ls level0.bundle
  bundlectl ls level0.bundle --long`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(args)
		},
	}
	cmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Show offsets, sizes and flags")
	return cmd
}

type fileInfo struct {
	Bundle int    `json:"bundle"`
	Path   string `json:"path"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
	Flags  uint32 `json:"flags"`
}

func runLs(args []string) error {
	bundles, err := openBundles(args[0])
	if err != nil {
		return err
	}
	defer closeBundles(bundles)

	var files []fileInfo
	for i, b := range bundles {
		for _, e := range b.FS.Entries {
			files = append(files, fileInfo{Bundle: i, Path: e.Path, Offset: e.Offset, Size: e.Size, Flags: e.Flags})
		}
	}
	if jsonOut {
		return printJSON(files)
	}
	for _, f := range files {
		if lsLong {
			printInfo("%10s  %#02x  @%-10d %s\n", humanize.IBytes(uint64(f.Size)), f.Flags, f.Offset, f.Path)
			continue
		}
		printInfo("%s\n", f.Path)
	}
	return nil
}
