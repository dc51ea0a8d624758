// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aggregate collates the per-run event series of one benchmark
// into a single table aligned by event ordinal.
//
// Row r of the table holds the r-th event of every run. Runs have
// different numbers of events, so shorter runs are padded with zero
// and the table is as long as the longest run. Two summary rows
// follow the events: the number of non-zero events of each run, and
// the sum of each run's column.
package aggregate

import (
	"fmt"

	"github.com/aclements/go-moremath/vec"

	"github.com/dacapo-gc/dacapostat/report"
)

// CountLabel labels the row of per-run event counts.
const CountLabel = "Total event count"

// DefaultTotalLabel labels the row of per-run sums if Build is given
// no label.
const DefaultTotalLabel = "Total time"

// A Table is the event-by-run matrix of one benchmark.
type Table struct {
	// Runs is the number of run columns.
	Runs int

	// Events[r][i] is the (r+1)th event of run i+1, or 0.
	Events [][]float64

	// Counts[i] is the number of non-zero events of run i+1.
	Counts []int

	// Totals[i] is the sum of the events of run i+1.
	Totals []float64

	// TotalLabel labels the Totals row.
	TotalLabel string

	lens []int
}

// Build collates series into a Table with runs columns. series[i]
// holds the events of run i+1 in ordinal order. A run with no entry in
// series, or a nil entry, has no events. Entries beyond runs are
// ignored.
func Build(series [][]float64, runs int, totalLabel string) *Table {
	if totalLabel == "" {
		totalLabel = DefaultTotalLabel
	}
	t := &Table{
		Runs:       runs,
		Counts:     make([]int, runs),
		Totals:     make([]float64, runs),
		TotalLabel: totalLabel,
		lens:       make([]int, runs),
	}
	rows := 0
	for i := 0; i < runs && i < len(series); i++ {
		t.lens[i] = len(series[i])
		if len(series[i]) > rows {
			rows = len(series[i])
		}
	}
	t.Events = make([][]float64, rows)
	for r := range t.Events {
		t.Events[r] = make([]float64, runs)
	}
	for i := 0; i < runs && i < len(series); i++ {
		for r, v := range series[i] {
			t.Events[r][i] = v
			if v != 0 {
				t.Counts[i]++
			}
		}
		t.Totals[i] = vec.Sum(series[i])
	}
	return t
}

// Column returns the events recorded for run (1-based), without the
// zero padding added for longer runs.
func (t *Table) Column(run int) []float64 {
	n := t.lens[run-1]
	xs := make([]float64, n)
	for r := 0; r < n; r++ {
		xs[r] = t.Events[r][run-1]
	}
	return xs
}

// Header returns the column names: "Event" followed by one
// "Run i" per run.
func (t *Table) Header() []string {
	h := []string{"Event"}
	for i := 1; i <= t.Runs; i++ {
		h = append(h, fmt.Sprintf("Run %d", i))
	}
	return h
}

// Report returns t as a report table, ready to be written.
func (t *Table) Report() *report.Table {
	rt := report.New(t.Header()...)
	for r, row := range t.Events {
		cells := []string{fmt.Sprint(r + 1)}
		for _, v := range row {
			cells = append(cells, report.FormatFloat(v))
		}
		rt.Add(cells...)
	}
	counts := []string{CountLabel}
	for _, c := range t.Counts {
		counts = append(counts, fmt.Sprint(c))
	}
	rt.Add(counts...)
	totals := []string{t.TotalLabel}
	for _, v := range t.Totals {
		totals = append(totals, report.FormatFloat(v))
	}
	rt.Add(totals...)
	return rt
}
