// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	redact "github.com/jhprof/hprofredact"
	"github.com/jhprof/hprofredact/internal/progresstui"
	"github.com/jhprof/hprofredact/internal/rlog"
	"github.com/jhprof/hprofredact/internal/srcio"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	transformerName string
	verbose         bool
	dryRun          bool
	statsOnly       bool
	noProgress      bool
)

const version = "0.1.0"

func hprofValidArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) >= 1 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	return []string{".hprof", ".hprof.gz"}, cobra.ShellCompDirectiveFilterFileExt
}

func runFilter(cmd *cobra.Command, args []string) {
	inputPath := args[0]
	logger := rlog.NewHelper(rlog.NopLogger{})
	if verbose {
		logger = rlog.NewHelper(rlog.NewStdLogger(os.Stderr))
	}

	transformer, err := redact.ResolveTransformer(transformerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hprofredact: %v\n", err)
		os.Exit(1)
	}

	opts := redact.Options{
		Verbose: verbose,
		DryRun:  dryRun || statsOnly,
	}
	if verbose {
		opts.ChangeSink = loggingChangeSink{logger: logger}
	}

	var writer io.Writer = io.Discard
	if !opts.DryRun {
		outputPath := inputPath + ".redacted"
		if len(args) > 1 {
			outputPath = args[1]
		}
		out, err := srcio.OpenOutput(outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hprofredact: %v\n", err)
			os.Exit(1)
		}
		defer out.Close()
		writer = out
	}

	var sink *progresstui.Sink
	var uiDone chan error
	if !noProgress {
		if fi, statErr := os.Stat(inputPath); statErr == nil {
			sink = progresstui.NewSink(fi.Size())
			opts.ProgressSink = sink
			uiDone = make(chan error, 1)
			go func() { uiDone <- sink.Run() }()
		}
	}

	drv := redact.NewDriver(transformer, opts)
	stats, err := drv.Filter(srcio.FileSource{Path: inputPath}, writer)

	if sink != nil {
		sink.Finish()
		<-uiDone
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "hprofredact: filter failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "hprofredact: %s read, %s written, %d classes, %d symbols classified, %d strings changed, took %s\n",
		humanize.Bytes(uint64(stats.BytesIn)),
		humanize.Bytes(uint64(stats.BytesOut)),
		stats.ClassesSeen,
		stats.SymbolsClassified,
		stats.StringsChanged,
		stats.Duration)
}

type loggingChangeSink struct {
	logger *rlog.Helper
}

func (s loggingChangeSink) NoteChange(kind redact.NameKind, symbolID uint64, before, after string) {
	s.logger.Infof("symbol %d (%s): %q -> %q", symbolID, kind, before, after)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hprofredact",
		Short: "Redact sensitive data from HPROF heap dumps",
		Long:  "hprofredact rewrites a HotSpot HPROF heap dump, replacing string and primitive payload values through a pluggable transformer while preserving object graph structure.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("hprofredact version", version)
		},
	}

	filterCmd := &cobra.Command{
		Use:               "filter <input.hprof> [output.hprof]",
		Short:             "Rewrite an HPROF dump through a transformer",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: hprofValidArgs,
		Run:               runFilter,
	}
	filterCmd.Flags().StringVarP(&transformerName, "transformer", "t", "zero", "transformer policy: zero, zero-strings, drop-strings")
	filterCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every changed symbol to stderr")
	filterCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the dump and report stats without writing output")
	filterCmd.Flags().BoolVar(&statsOnly, "stats-only", false, "alias for --dry-run")
	filterCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the live progress display")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(filterCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
