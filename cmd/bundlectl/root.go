package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/bundlekit/bundle"
	"github.com/joshuapare/bundlekit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	align   int64
	useMmap bool
)

var rootCmd = &cobra.Command{
	Use:   "bundlectl",
	Short: "Inspect, extract and repack FS asset bundles",
	Long: `bundlectl reads chunked FS asset bundles, lists and extracts the files
they contain, and re-emits them with different compression settings.
Files holding several concatenated bundles are supported with --align.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logrus.WarnLevel
		if verbose {
			level = logrus.DebugLevel
		}
		logger.Init(logger.Options{Enabled: !quiet, Level: level})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		Int64Var(&align, "align", 1, "Alignment between concatenated bundles")
	rootCmd.PersistentFlags().BoolVar(&useMmap, "mmap", false, "Memory-map bundle files")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openBundles parses every bundle stored in path.
func openBundles(path string, opts ...bundle.Option) ([]*bundle.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if useMmap {
		opts = append(opts, bundle.WithMmap())
	}
	bundles, err := bundle.OpenSequence(f, path, align, opts...)
	if err != nil {
		closeBundles(bundles)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("%s holds no bundles", path)
	}
	return bundles, nil
}

func closeBundles(bundles []*bundle.Bundle) {
	for _, b := range bundles {
		_ = b.Close()
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
