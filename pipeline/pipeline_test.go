// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dacapo-gc/dacapostat/storage/db"
	"github.com/dacapo-gc/dacapostat/storage/db/dbtest"
	"github.com/dacapo-gc/dacapostat/timing"
)

const (
	fopTime = "===== DaCapo 23.11-chopin fop starting warmup 1 =====\n" +
		"Warmup: Benchmark ended 12.5s\n" +
		"===== DaCapo 23.11-chopin fop PASSED in 4200 msec =====\n"
	fopLog = "[0.005s] Using G1\n" +
		"[10.0s] GC(3) Pause Young (Normal) (G1 Evacuation Pause) 50M->10M(200M) 3.000ms\n" +
		"[13.0s] GC(4) Pause Full (x) 100M->20M(200M) 15.234ms\n" +
		"[13.0s] GC(4) User=0.50s Sys=0.25s Real=1.00s\n"
)

// writeLogs creates the named files under dir.
func writeLogs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0777); err != nil {
		t.Fatal(err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0666); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newConfig(t *testing.T, mode Mode, runs int) (*Config, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &Config{
		Layout:     Layout{ParentDir: t.TempDir()},
		Benchmarks: []string{"fop"},
		Runs:       runs,
		Mode:       mode,
		Log:        log.New(&buf, "", 0),
	}
	return cfg, &buf
}

func checkFiles(t *testing.T, dir string, want map[string]string) {
	t.Helper()
	for name, w := range want {
		if got := readFile(t, filepath.Join(dir, name)); got != w {
			t.Errorf("%s:\n%s\nwant:\n%s", name, got, w)
		}
	}
}

func TestRunGC(t *testing.T) {
	cfg, logBuf := newConfig(t, GCMetrics, 1)
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  fopLog,
	})

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	checkFiles(t, cfg.Dir(), map[string]string{
		"fop_run1.gc":  "Event,Pause (ms)\n1,15.234\nTotal time,15.234\n",
		"fop_run1.cpu": "Event,User (s),Sys (s),Real (s)\n1,0.5,0.25,1\nTotal,0.5,0.25,1\n",
		"fop.gc":       "Event,Run 1\n1,15.234\nTotal event count,1\nTotal time,15.234\n",
		"fop.cpu":      "Event,Run 1\n1,0.75\nTotal event count,1\nTotal time,0.75\n",
	})

	want := []RunSummary{
		{"fop", 1, MetricGCCount, 1},
		{"fop", 1, MetricPauseMillis, 15.234},
		{"fop", 1, MetricCPUUser, 0.5},
		{"fop", 1, MetricCPUSys, 0.25},
		{"fop", 1, MetricCPUReal, 1},
	}
	if diff := cmp.Diff(want, res.Summaries); diff != "" {
		t.Errorf("summaries (-want +got):\n%s", diff)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("unexpected skipped runs: %v", res.Skipped)
	}

	out := logBuf.String()
	for _, s := range []string{"Evaluating benchmark fop", "------ Run 1", "GC count: 1", "GC total time: 15.234ms", "CPU Usage: User=0.5 Sys=0.25 Real=1"} {
		if !strings.Contains(out, s) {
			t.Errorf("log output missing %q:\n%s", s, out)
		}
	}
}

func TestRunRuntime(t *testing.T) {
	cfg, _ := newConfig(t, Runtime, 2)
	// Runtime mode never reads the GC log, so none is provided.
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run2.time": "Warmup: Benchmark ended 12.5s\n",
	})

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	checkFiles(t, cfg.Dir(), map[string]string{
		"fop.runtime": "Run,Runtime (ms)\n1,4200\n",
	})
	if len(res.Skipped) != 1 || res.Skipped[0].Run != 2 || res.Skipped[0].Kind != NoBanner {
		t.Fatalf("want run 2 skipped without banner, got %v", res.Skipped)
	}
	if !errors.Is(res.Skipped[0], timing.ErrNoBanner) {
		t.Errorf("skip error %v does not wrap ErrNoBanner", res.Skipped[0])
	}
}

func TestRunRuntimeNone(t *testing.T) {
	cfg, logBuf := newConfig(t, Runtime, 1)
	if err := os.MkdirAll(cfg.Dir(), 0777); err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Kind != MissingArtifact {
		t.Errorf("want one missing artifact, got %v", res.Skipped)
	}
	if _, err := os.Stat(cfg.Output("fop", "runtime")); !os.IsNotExist(err) {
		t.Errorf("runtime report written without any banner")
	}
	if !strings.Contains(logBuf.String(), "no runtime found for fop") {
		t.Errorf("missing warning in log:\n%s", logBuf)
	}
}

func TestRunMissingLog(t *testing.T) {
	cfg, logBuf := newConfig(t, GCMetrics, 3)
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  "[13.0s] Pause Young (Normal) (G1 Evacuation Pause) 50M->10M(200M) 1.5ms\n[14.0s] Pause Young (Normal) (G1 Evacuation Pause) 50M->10M(200M) 2.5ms\n",
		"fop_run2.time": fopTime,
		"fop_run3.time": fopTime,
		"fop_run3.log":  "[20.0s] Pause Full (System.gc()) 80M->30M(200M) 2ms\n",
	})

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	checkFiles(t, cfg.Dir(), map[string]string{
		"fop.gc": "Event,Run 1,Run 2,Run 3\n" +
			"1,1.5,0,2\n" +
			"2,2.5,0,0\n" +
			"Total event count,2,0,1\n" +
			"Total time,4,0,2\n",
		"fop.cpu": "Event,Run 1,Run 2,Run 3\n" +
			"Total event count,0,0,0\n" +
			"Total time,0,0,0\n",
	})
	if _, err := os.Stat(cfg.RunOutput("fop", 2, "gc")); !os.IsNotExist(err) {
		t.Errorf("per-run report written for a skipped run")
	}

	if len(res.Skipped) != 1 {
		t.Fatalf("want 1 skipped run, got %v", res.Skipped)
	}
	re := res.Skipped[0]
	wantPath := filepath.Join(cfg.Dir(), "fop_run2.log")
	if re.Run != 2 || re.Kind != MissingArtifact || re.Path != wantPath {
		t.Errorf("got %+v, want run 2 missing %s", re, wantPath)
	}
	if !errors.Is(re, os.ErrNotExist) {
		t.Errorf("skip error %v does not wrap ErrNotExist", re)
	}
	if want := "Warning: " + wantPath + " not found."; !strings.Contains(logBuf.String(), want) {
		t.Errorf("log output missing %q:\n%s", want, logBuf)
	}
}

func TestRunBoundaryNotFound(t *testing.T) {
	cfg, logBuf := newConfig(t, GCMetrics, 2)
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": "===== DaCapo 23.11-chopin fop PASSED in 4200 msec =====\n",
		"fop_run1.log":  fopLog,
		"fop_run2.log":  fopLog,
	})

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []ErrorKind
	for _, re := range res.Skipped {
		kinds = append(kinds, re.Kind)
	}
	if diff := cmp.Diff([]ErrorKind{BoundaryNotFound, MissingArtifact}, kinds); diff != "" {
		t.Errorf("skipped kinds (-want +got):\n%s", diff)
	}
	if len(res.Skipped) > 0 && !errors.Is(res.Skipped[0], timing.ErrNoWarmup) {
		t.Errorf("skip error %v does not wrap ErrNoWarmup", res.Skipped[0])
	}
	if !strings.Contains(logBuf.String(), "Error: Could not determine warmup logs for fop run 1") {
		t.Errorf("missing boundary error in log:\n%s", logBuf)
	}
	checkFiles(t, cfg.Dir(), map[string]string{
		"fop.gc": "Event,Run 1,Run 2\nTotal event count,0,0\nTotal time,0,0\n",
	})
}

func TestRunOversizedLog(t *testing.T) {
	cfg, logBuf := newConfig(t, GCMetrics, 1)
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  "[13.0s] " + strings.Repeat("x", 2<<20) + "\n",
	})

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("want 1 skipped run, got %v", res.Skipped)
	}
	re := res.Skipped[0]
	if re.Kind != MissingArtifact || !errors.Is(re, bufio.ErrTooLong) {
		t.Errorf("got %+v (%v), want unreadable log", re, re.Err)
	}
	out := logBuf.String()
	if strings.Contains(out, "not found") || !strings.Contains(out, "unreadable") {
		t.Errorf("log output does not report the read error:\n%s", out)
	}
}

func TestRunNoLogDir(t *testing.T) {
	cfg, logBuf := newConfig(t, GCMetrics, 1)
	cfg.Benchmarks = []string{"fop", "avrora"}

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("want both runs skipped, got %v", res.Skipped)
	}
	if !strings.Contains(logBuf.String(), "Evaluating benchmark avrora") {
		t.Errorf("second benchmark not evaluated:\n%s", logBuf)
	}
	checkFiles(t, cfg.Dir(), map[string]string{
		"avrora.gc": "Event,Run 1\nTotal event count,0\nTotal time,0\n",
	})
}

func TestRunLiveSet(t *testing.T) {
	cfg, logBuf := newConfig(t, LiveSet, 1)
	cfg.Compact = true
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  fopLog,
		// Rotated fragment, read after the primary log.
		"fop_run1.0.log": "[11.0s] Pause Full (x) 500M->400M(600M) 9ms\n[15.0s] Pause Full (x) 90M->30M(200M) 12ms\n",
	})
	if !strings.HasSuffix(cfg.Dir(), "logs_compact") {
		t.Fatalf("compact layout dir %s", cfg.Dir())
	}

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	checkFiles(t, cfg.Dir(), map[string]string{
		"fop_run1.live": "Event,Before (MB),After (MB)\n1,100,20\n2,90,30\nAverage live-set,,25\n",
		"fop.live":      "Event,Run 1\n1,20\n2,30\nTotal event count,2\nTotal value,50\n",
	})
	want := []RunSummary{
		{"fop", 1, MetricFullGCCount, 2},
		{"fop", 1, MetricLiveMB, 25},
	}
	if diff := cmp.Diff(want, res.Summaries); diff != "" {
		t.Errorf("summaries (-want +got):\n%s", diff)
	}
	if !strings.Contains(logBuf.String(), "Average liveset size 25M") {
		t.Errorf("missing live-set average in log:\n%s", logBuf)
	}
}

func TestRunKeepFiltered(t *testing.T) {
	cfg, _ := newConfig(t, GCMetrics, 1)
	cfg.KeepFiltered = true
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  fopLog,
	})
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	checkFiles(t, cfg.Dir(), map[string]string{
		"fop_run1.filtered": "[13.0s] GC(4) Pause Full (x) 100M->20M(200M) 15.234ms\n" +
			"[13.0s] GC(4) User=0.50s Sys=0.25s Real=1.00s\n",
	})
}

func TestRunVerbose(t *testing.T) {
	cfg, logBuf := newConfig(t, GCMetrics, 1)
	cfg.Verbose = true
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  fopLog,
	})
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	out := logBuf.String()
	if !strings.Contains(out, cfg.Output("fop", "gc")+":") || !strings.Contains(out, "Total event count") {
		t.Errorf("verbose output missing aggregated table:\n%s", out)
	}
}

func TestRunStore(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewDB(t)
	cfg, _ := newConfig(t, GCMetrics, 1)
	cfg.Store = store
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  fopLog,
	})
	if _, err := Run(ctx, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := store.Runs(ctx, "fop", true)
	if err != nil {
		t.Fatal(err)
	}
	want := []*db.Run{
		{Benchmark: "fop", Run: 1, Mode: "gc", Metric: MetricPauseMillis, Boundary: 12.5, Values: []float64{15.234}, Events: 1, Total: 15.234},
		{Benchmark: "fop", Run: 1, Mode: "gc", Metric: "cpu_s", Boundary: 12.5, Values: []float64{0.75}, Events: 1, Total: 0.75},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(db.Run{}, "ID")); diff != "" {
		t.Errorf("stored runs (-want +got):\n%s", diff)
	}
}

func TestRunCharts(t *testing.T) {
	cfg, _ := newConfig(t, GCMetrics, 1)
	cfg.ChartDir = filepath.Join(t.TempDir(), "charts")
	writeLogs(t, cfg.Dir(), map[string]string{
		"fop_run1.time": fopTime,
		"fop_run1.log":  fopLog,
	})
	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"fop.gc.png", "fop.cpu.png"} {
		path := filepath.Join(cfg.ChartDir, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("chart not written: %v", err)
		}
		found := false
		for _, w := range res.Written {
			found = found || w == path
		}
		if !found {
			t.Errorf("%s not listed in Result.Written", path)
		}
	}
}

func TestRunConfigErrors(t *testing.T) {
	cfg, _ := newConfig(t, GCMetrics, 0)
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Error("want error for zero runs")
	}
	cfg, _ = newConfig(t, GCMetrics, 1)
	cfg.Benchmarks = nil
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Error("want error for empty benchmark list")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{GCMetrics, LiveSet, Runtime} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("pause"); err == nil {
		t.Error("ParseMode(\"pause\") succeeded")
	}
}

func TestLayout(t *testing.T) {
	l := Layout{ParentDir: "/data"}
	if got, want := l.TimeLog("fop", 3), "/data/logs/fop_run3.time"; got != want {
		t.Errorf("TimeLog = %s, want %s", got, want)
	}
	l.Compact = true
	want := []string{"/data/logs_compact/fop_run3.log", "/data/logs_compact/fop_run3.0.log"}
	if diff := cmp.Diff(want, l.EventLogs("fop", 3)); diff != "" {
		t.Errorf("EventLogs (-want +got):\n%s", diff)
	}
	if got, want := l.Output("fop", "gc"), "/data/logs_compact/fop.gc"; got != want {
		t.Errorf("Output = %s, want %s", got, want)
	}
}
