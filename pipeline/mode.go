// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dacapo-gc/dacapostat/aggregate"
	"github.com/dacapo-gc/dacapostat/metrics"
	"github.com/dacapo-gc/dacapostat/report"
	"github.com/dacapo-gc/dacapostat/storage/db"
	"github.com/dacapo-gc/dacapostat/timing"
)

// A Mode selects what a batch extracts.
type Mode int

const (
	// GCMetrics extracts GC pauses and CPU accounting.
	GCMetrics Mode = iota
	// LiveSet extracts the heap occupancy after full collections.
	LiveSet
	// Runtime extracts the elapsed time of each run from its
	// completion banner.
	Runtime
)

var modeNames = []string{
	GCMetrics: "gc",
	LiveSet:   "live",
	Runtime:   "runtime",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the Mode named s.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (want gc, live or runtime)", s)
}

// An Extractor folds the runs of one benchmark into per-benchmark
// state and writes its reports.
type Extractor interface {
	// NeedsBoundary reports whether Run wants the filtered GC log.
	// If not, the GC log is never read.
	NeedsBoundary() bool

	// Run extracts the metrics of one run. A *RunError result skips
	// the run; any other error stops the batch.
	Run(run int, in *RunInput) error

	// Finish writes the aggregated reports once every run has been
	// seen, including runs that were skipped.
	Finish() error
}

func (m Mode) newExtractor(b *batch, bench string) Extractor {
	switch m {
	case LiveSet:
		return &liveExtractor{b: b, bench: bench, after: make([][]float64, b.cfg.Runs)}
	case Runtime:
		return &runtimeExtractor{b: b, bench: bench}
	}
	return &gcExtractor{
		b:      b,
		bench:  bench,
		pauses: make([][]float64, b.cfg.Runs),
		cpu:    make([][]float64, b.cfg.Runs),
	}
}

type gcExtractor struct {
	b      *batch
	bench  string
	pauses [][]float64 // by run-1
	cpu    [][]float64
}

func (e *gcExtractor) NeedsBoundary() bool { return true }

func (e *gcExtractor) Run(run int, in *RunInput) error {
	b := e.b
	pauses := metrics.GCPauses(in.Lines)
	cpu := metrics.CPUUsage(in.Lines)
	pauses.Summarize(b.out())
	cpu.Summarize(b.out())

	if err := b.write(b.cfg.RunOutput(e.bench, run, "gc"), pauses.Table()); err != nil {
		return err
	}
	if err := b.write(b.cfg.RunOutput(e.bench, run, "cpu"), cpu.Table()); err != nil {
		return err
	}
	e.pauses[run-1] = pauses.Durations()
	e.cpu[run-1] = cpu.CPUTimes()

	b.summarize(e.bench, run, MetricGCCount, float64(len(pauses.Events)))
	b.summarize(e.bench, run, MetricPauseMillis, pauses.Total)
	b.summarize(e.bench, run, MetricCPUUser, cpu.User)
	b.summarize(e.bench, run, MetricCPUSys, cpu.Sys)
	b.summarize(e.bench, run, MetricCPUReal, cpu.Real)

	for _, r := range []*db.Run{
		{Metric: MetricPauseMillis, Values: e.pauses[run-1], Events: len(pauses.Events), Total: pauses.Total},
		{Metric: seriesCPU, Values: e.cpu[run-1], Events: len(cpu.Samples), Total: cpu.User + cpu.Sys},
	} {
		r.Benchmark, r.Run, r.Mode, r.Boundary = e.bench, run, GCMetrics.String(), in.Boundary
		if err := b.store(r); err != nil {
			return err
		}
	}
	return nil
}

func (e *gcExtractor) Finish() error {
	runs := e.b.cfg.Runs
	if err := e.b.writeAggregate(e.bench, "gc", "Pause (ms)", aggregate.Build(e.pauses, runs, aggregate.DefaultTotalLabel)); err != nil {
		return err
	}
	return e.b.writeAggregate(e.bench, "cpu", "CPU (s)", aggregate.Build(e.cpu, runs, aggregate.DefaultTotalLabel))
}

type liveExtractor struct {
	b     *batch
	bench string
	after [][]float64 // by run-1
}

func (e *liveExtractor) NeedsBoundary() bool { return true }

func (e *liveExtractor) Run(run int, in *RunInput) error {
	b := e.b
	live := metrics.LiveSet(in.Lines)
	live.Summarize(b.out())
	if err := b.write(b.cfg.RunOutput(e.bench, run, "live"), live.Table()); err != nil {
		return err
	}
	e.after[run-1] = live.After()

	b.summarize(e.bench, run, MetricFullGCCount, float64(len(live.Events)))
	b.summarize(e.bench, run, MetricLiveMB, live.Average())

	return b.store(&db.Run{
		Benchmark: e.bench,
		Run:       run,
		Mode:      LiveSet.String(),
		Metric:    seriesLive,
		Boundary:  in.Boundary,
		Values:    e.after[run-1],
		Events:    len(live.Events),
		Total:     live.Average(),
	})
}

func (e *liveExtractor) Finish() error {
	return e.b.writeAggregate(e.bench, "live", "Live set (MB)", aggregate.Build(e.after, e.b.cfg.Runs, "Total value"))
}

type runtimeExtractor struct {
	b     *batch
	bench string
	t     *report.Table
}

func (e *runtimeExtractor) NeedsBoundary() bool { return false }

func (e *runtimeExtractor) Run(run int, in *RunInput) error {
	banner, err := timing.ReadBanner(in.TimeLog)
	if err != nil {
		kind := NoBanner
		if errors.Is(err, fs.ErrNotExist) {
			kind = MissingArtifact
		}
		return &RunError{e.bench, run, kind, in.TimeLog, err}
	}
	e.b.log.Printf("Runtime: %d msec", banner.Msec)
	if e.t == nil {
		e.t = report.New("Run", "Runtime (ms)")
	}
	e.t.Add(fmt.Sprint(run), fmt.Sprint(banner.Msec))

	e.b.summarize(e.bench, run, MetricRuntime, float64(banner.Msec))
	return e.b.store(&db.Run{
		Benchmark: e.bench,
		Run:       run,
		Mode:      Runtime.String(),
		Metric:    MetricRuntime,
		Boundary:  in.Boundary,
		Values:    []float64{float64(banner.Msec)},
		Events:    1,
		Total:     float64(banner.Msec),
	})
}

func (e *runtimeExtractor) Finish() error {
	if e.t == nil {
		e.b.log.Printf("Warning: no runtime found for %s", e.bench)
		return nil
	}
	return e.b.write(e.b.cfg.Output(e.bench, "runtime"), e.t)
}
