// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline runs metric extraction over a batch of DaCapo
// benchmark runs and writes the per-run and per-benchmark reports.
//
// Benchmarks are processed one at a time, and the runs of a benchmark
// one at a time. For each run, the warmup boundary is read from the
// timing log, the GC log is filtered to the lines at or after the
// boundary, and the extractor selected by the Mode folds the run into
// its per-benchmark state. Once all runs of a benchmark are done, the
// extractor writes the aggregated reports.
//
// A run whose logs are missing, or whose timing log has no warmup
// boundary, is reported and skipped. It still occupies its column in
// the aggregated reports, with no events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dacapo-gc/dacapostat/aggregate"
	"github.com/dacapo-gc/dacapostat/chart"
	"github.com/dacapo-gc/dacapostat/gclog"
	"github.com/dacapo-gc/dacapostat/report"
	"github.com/dacapo-gc/dacapostat/storage/db"
	"github.com/dacapo-gc/dacapostat/timing"
)

// A Store persists run metrics. *db.DB implements Store.
type Store interface {
	InsertRun(ctx context.Context, r *db.Run) error
}

// Config configures a batch. The benchmark set and run count are
// fixed for the whole batch.
type Config struct {
	Layout

	// Benchmarks are the benchmark names to process, in order.
	Benchmarks []string

	// Runs is the number of runs of each benchmark, numbered from 1.
	Runs int

	Mode Mode

	// Log receives progress and warnings. If nil, they are
	// written to os.Stdout.
	Log *log.Logger

	// Verbose prints every report written, as a text table, to Log.
	Verbose bool

	// KeepFiltered writes the post-warmup GC log lines of each run
	// to <bench>_run<N>.filtered.
	KeepFiltered bool

	// ChartDir, if set, is the directory to write PNG charts of
	// the aggregated reports to.
	ChartDir string

	// Store, if set, receives the metrics of every extracted run.
	Store Store
}

// A RunSummary is one headline number of one run.
type RunSummary struct {
	Benchmark string
	Run       int
	Metric    string
	Value     float64
}

// Metric names used in RunSummary.
const (
	MetricGCCount     = "gc_count"
	MetricPauseMillis = "pause_ms"
	MetricCPUUser     = "cpu_user_s"
	MetricCPUSys      = "cpu_sys_s"
	MetricCPUReal     = "cpu_real_s"
	MetricFullGCCount = "full_gc_count"
	MetricLiveMB      = "live_avg_mb"
	MetricRuntime     = "runtime_ms"
)

// Names of stored series that have no RunSummary of their own.
const (
	seriesCPU  = "cpu_s"
	seriesLive = "live_mb"
)

// A Result is the outcome of a batch.
type Result struct {
	// Summaries holds the headline numbers of every extracted run
	// in processing order.
	Summaries []RunSummary

	// Skipped lists the runs that contributed no data.
	Skipped []*RunError

	// Written lists the paths of every report written.
	Written []string
}

// An ErrorKind classifies why a run was skipped.
type ErrorKind int

const (
	// MissingArtifact means an input log is absent or cannot be read.
	MissingArtifact ErrorKind = iota
	// BoundaryNotFound means the timing log has no warmup-completion
	// line.
	BoundaryNotFound
	// NoBanner means the timing log has no completion banner.
	NoBanner
)

func (k ErrorKind) String() string {
	switch k {
	case MissingArtifact:
		return "missing artifact"
	case BoundaryNotFound:
		return "warmup boundary not found"
	case NoBanner:
		return "completion banner not found"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// A RunError reports a run that was skipped. It never stops a batch.
type RunError struct {
	Benchmark string
	Run       int
	Kind      ErrorKind
	Path      string // the offending input
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s run %d: %s: %s", e.Benchmark, e.Run, e.Kind, e.Path)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// A RunInput is what an Extractor receives for one run.
type RunInput struct {
	// TimeLog is the path of the run's timing log.
	TimeLog string

	// Boundary is the warmup boundary in seconds. It is NaN if the
	// extractor does not need one.
	Boundary float64

	// Lines are the post-warmup GC log lines, or nil if the
	// extractor does not need a boundary.
	Lines []string
}

// Run processes every benchmark and run of cfg.
//
// Missing inputs and unmatched lines never stop the batch; skipped
// runs are logged and listed in the Result. Run returns an error only
// for invalid configuration or if a report cannot be written or
// stored, in which case the partial Result is returned too.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	if cfg.Runs < 1 {
		return nil, fmt.Errorf("run count must be positive, got %d", cfg.Runs)
	}
	if len(cfg.Benchmarks) == 0 {
		return nil, errors.New("no benchmarks configured")
	}
	b := &batch{ctx: ctx, cfg: cfg, log: cfg.Log, result: new(Result)}
	if b.log == nil {
		b.log = log.New(os.Stdout, "", 0)
	}
	// Reports are written next to the logs even if no log exists.
	for _, dir := range []string{cfg.Dir(), cfg.ChartDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, err
		}
	}

	for _, bench := range cfg.Benchmarks {
		b.log.Printf("Evaluating benchmark %s", bench)
		ext := cfg.Mode.newExtractor(b, bench)
		for run := 1; run <= cfg.Runs; run++ {
			b.log.Printf("------ Run %d", run)
			in, err := b.input(bench, run, ext.NeedsBoundary())
			if err == nil {
				err = ext.Run(run, in)
			}
			var re *RunError
			if errors.As(err, &re) {
				b.skip(re)
				continue
			}
			if err != nil {
				return b.result, err
			}
		}
		if err := ext.Finish(); err != nil {
			return b.result, err
		}
	}
	return b.result, nil
}

// batch is the state shared by the extractors of one call to Run.
type batch struct {
	ctx    context.Context
	cfg    *Config
	log    *log.Logger
	result *Result
}

// input prepares the RunInput of one run.
func (b *batch) input(bench string, run int, filtered bool) (*RunInput, error) {
	in := &RunInput{TimeLog: b.cfg.TimeLog(bench, run), Boundary: math.NaN()}
	if !filtered {
		return in, nil
	}

	boundary, err := timing.ReadWarmupEnd(in.TimeLog)
	if err != nil {
		kind := BoundaryNotFound
		if errors.Is(err, fs.ErrNotExist) {
			kind = MissingArtifact
		}
		return nil, &RunError{bench, run, kind, in.TimeLog, err}
	}

	paths := b.cfg.EventLogs(bench, run)
	frags := paths[:1]
	for _, p := range paths[1:] {
		if _, err := os.Stat(p); err == nil {
			frags = append(frags, p)
		}
	}
	lines, err := gclog.FilterFiles(boundary, frags...)
	if err != nil {
		return nil, &RunError{bench, run, MissingArtifact, errPath(err, paths[0]), err}
	}
	in.Boundary, in.Lines = boundary, lines
	b.log.Printf("Warmup ended at %ss, %d lines after warmup", report.FormatFloat(boundary), len(lines))

	if b.cfg.KeepFiltered {
		path := b.cfg.RunOutput(bench, run, "filtered")
		data := strings.Join(lines, "\n")
		if len(lines) > 0 {
			data += "\n"
		}
		if err := os.WriteFile(path, []byte(data), 0666); err != nil {
			return nil, err
		}
		b.result.Written = append(b.result.Written, path)
	}
	return in, nil
}

// errPath returns the path named by err, or def.
func errPath(err error, def string) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Path
	}
	return def
}

func (b *batch) skip(re *RunError) {
	switch re.Kind {
	case MissingArtifact:
		if errors.Is(re.Err, fs.ErrNotExist) {
			b.log.Printf("Warning: %s not found.", re.Path)
		} else {
			b.log.Printf("Warning: %s unreadable: %v", re.Path, re.Err)
		}
	case BoundaryNotFound:
		b.log.Printf("Error: Could not determine warmup logs for %s run %d", re.Benchmark, re.Run)
	default:
		b.log.Printf("Warning: %v", re)
	}
	b.result.Skipped = append(b.result.Skipped, re)
}

// write writes t to path and records it in the result.
func (b *batch) write(path string, t *report.Table) error {
	if err := report.WriteFile(path, t); err != nil {
		return err
	}
	b.result.Written = append(b.result.Written, path)
	if b.cfg.Verbose {
		b.log.Printf("%s:", path)
		if err := report.FormatText(b.log.Writer(), t); err != nil {
			return err
		}
	}
	return nil
}

// writeAggregate writes the aggregated report t of bench and, if
// charts are enabled and t has events, its chart.
func (b *batch) writeAggregate(bench, kind, ylabel string, t *aggregate.Table) error {
	if err := b.write(b.cfg.Output(bench, kind), t.Report()); err != nil {
		return err
	}
	if b.cfg.ChartDir == "" || len(t.Events) == 0 {
		return nil
	}
	path := filepath.Join(b.cfg.ChartDir, bench+"."+kind+".png")
	title := fmt.Sprintf("%s %s", bench, kind)
	if err := chart.Lines(path, title, ylabel, t); err != nil {
		b.log.Printf("Warning: chart %s: %v", path, err)
		return nil
	}
	b.result.Written = append(b.result.Written, path)
	return nil
}

// summarize records a headline number of one run.
func (b *batch) summarize(bench string, run int, metric string, v float64) {
	b.result.Summaries = append(b.result.Summaries, RunSummary{bench, run, metric, v})
}

// store persists r if a Store is configured.
func (b *batch) store(r *db.Run) error {
	if b.cfg.Store == nil {
		return nil
	}
	if err := b.cfg.Store.InsertRun(b.ctx, r); err != nil {
		return fmt.Errorf("storing %s run %d %s: %w", r.Benchmark, r.Run, r.Metric, err)
	}
	return nil
}

// out returns the writer extractors print per-run statistics to.
func (b *batch) out() io.Writer {
	return b.log.Writer()
}
