// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"path/filepath"
)

// A Layout locates the input logs and output reports of a batch.
//
// All files live in one directory, <ParentDir>/logs, or
// <ParentDir>/logs_compact for runs made with the compact memory option.
// Per-run inputs are named <bench>_run<N>.time for the harness timing
// log and <bench>_run<N>.log for the GC log. A GC log rotated by the
// JVM continues in <bench>_run<N>.0.log.
type Layout struct {
	ParentDir string
	Compact   bool
}

// Dir returns the directory holding logs and reports.
func (l Layout) Dir() string {
	name := "logs"
	if l.Compact {
		name += "_compact"
	}
	return filepath.Join(l.ParentDir, name)
}

// TimeLog returns the path of the timing log of one run.
func (l Layout) TimeLog(bench string, run int) string {
	return l.RunOutput(bench, run, "time")
}

// EventLogs returns the paths of the GC log fragments of one run, in
// the order they are read. Only the first is required to exist.
func (l Layout) EventLogs(bench string, run int) []string {
	return []string{
		l.RunOutput(bench, run, "log"),
		l.RunOutput(bench, run, "0.log"),
	}
}

// Output returns the path of a per-benchmark report of the given kind,
// such as "gc" or "runtime".
func (l Layout) Output(bench, kind string) string {
	return filepath.Join(l.Dir(), bench+"."+kind)
}

// RunOutput returns the path of a per-run file of the given kind.
func (l Layout) RunOutput(bench string, run int, kind string) string {
	return filepath.Join(l.Dir(), fmt.Sprintf("%s_run%d.%s", bench, run, kind))
}
