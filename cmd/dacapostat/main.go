// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Dacapostat extracts garbage collector metrics from the logs of
// DaCapo benchmark runs.
//
// Usage:
//
//	dacapostat [flags] -parent_dir dir -runs N
//
// The logs of every run are read from dir/logs (or dir/logs_compact
// with -compact). For run N of benchmark b, b_runN.time is the harness
// output and b_runN.log is the JVM unified GC log. Only GC log lines
// after the last warmup iteration are considered.
//
// The -mode flag selects what is extracted:
//
//	gc       pause durations and CPU accounting, written to b_runN.gc,
//	         b_runN.cpu and the cross-run tables b.gc and b.cpu
//	live     heap occupancy after full collections, written to
//	         b_runN.live and b.live
//	runtime  elapsed time of each run, written to b.runtime
//
// Missing logs are reported and the run is left empty in the
// cross-run tables.
//
// With -db driver:dsn, the extracted series are also stored in a
// sqlite3 or mysql database, for example -db sqlite3:results.db.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/dacapo-gc/dacapostat/pipeline"
	"github.com/dacapo-gc/dacapostat/storage/db"
	_ "github.com/dacapo-gc/dacapostat/storage/db/sqlite3"
	"github.com/dacapo-gc/dacapostat/summary"
)

// defaultBenchmarks is the DaCapo Chopin subset the harness runs.
const defaultBenchmarks = "avrora,eclipse,fop,jython,kafka,luindex,lusearch,pmd,spring,sunflow"

func main() {
	log.SetPrefix("dacapostat: ")
	log.SetFlags(0)
	if err := dacapostat(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.As(err, new(usageError)) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// A usageError is a command line error. It has already been reported.
type usageError struct{ error }

func dacapostat(stdout, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("dacapostat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: dacapostat [flags] -parent_dir dir -runs N\n")
		fs.PrintDefaults()
	}
	var (
		flagMode       = fs.String("mode", "gc", "extraction `mode`: gc, live or runtime")
		flagParentDir  = fs.String("parent_dir", "", "`dir`ectory containing the logs folder")
		flagRuns       = fs.Int("runs", 0, "`number` of runs per benchmark")
		flagCompact    = fs.Bool("compact", false, "read logs from logs_compact")
		flagBenchmarks = fs.String("benchmarks", defaultBenchmarks, "comma-separated `list` of benchmarks")
		flagVerbose    = fs.Bool("v", false, "print every report written")
		flagFiltered   = fs.Bool("filtered", false, "keep the post-warmup GC log of each run")
		flagPNG        = fs.String("png", "", "write charts of the cross-run tables into `dir`")
		flagDB         = fs.String("db", "", "store results in `driver:dsn`")
		flagSummary    = fs.Bool("summary", false, "print a per-benchmark summary at the end")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	usage := func(format string, args ...interface{}) error {
		fmt.Fprintf(stderr, "dacapostat: "+format+"\n", args...)
		fs.Usage()
		return usageError{fmt.Errorf(format, args...)}
	}
	if fs.NArg() > 0 {
		return usage("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	mode, err := pipeline.ParseMode(*flagMode)
	if err != nil {
		return usage("%v", err)
	}
	if *flagParentDir == "" {
		return usage("-parent_dir is required")
	}
	if *flagRuns < 1 {
		return usage("-runs must be a positive number")
	}
	var benches []string
	for _, b := range strings.Split(*flagBenchmarks, ",") {
		if b = strings.TrimSpace(b); b != "" {
			benches = append(benches, b)
		}
	}
	if len(benches) == 0 {
		return usage("no benchmarks given")
	}

	cfg := &pipeline.Config{
		Layout:       pipeline.Layout{ParentDir: *flagParentDir, Compact: *flagCompact},
		Benchmarks:   benches,
		Runs:         *flagRuns,
		Mode:         mode,
		Log:          log.New(stdout, "", 0),
		Verbose:      *flagVerbose,
		KeepFiltered: *flagFiltered,
		ChartDir:     *flagPNG,
	}
	if *flagDB != "" {
		driver, dsn, ok := strings.Cut(*flagDB, ":")
		if !ok || driver == "" {
			return usage("-db must be driver:dsn")
		}
		store, err := db.OpenSQL(driver, dsn)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()
		cfg.Store = store
	}

	res, err := pipeline.Run(context.Background(), cfg)
	if err != nil {
		return err
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(stderr, "dacapostat: %d run(s) skipped\n", len(res.Skipped))
	}
	if *flagSummary {
		fmt.Fprintln(stdout)
		return summary.Fprint(stdout, summary.Summarize(res.Summaries))
	}
	return nil
}
