// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package summary reduces the per-run headline numbers of a batch to
// one row per benchmark and metric.
package summary

import (
	"io"

	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"

	"github.com/dacapo-gc/dacapostat/pipeline"
)

// Column names of the Grouping returned by Summarize.
const (
	Benchmark = "benchmark"
	Metric    = "metric"
	Runs      = "runs"
	Mean      = "mean value"
	Sum       = "sum value"
)

// Summarize groups runs by benchmark and metric, in order of first
// appearance, and computes the number of runs, the mean and the sum
// of each group. It returns nil if runs is empty.
func Summarize(runs []pipeline.RunSummary) table.Grouping {
	if len(runs) == 0 {
		return nil
	}
	var (
		benches = make([]string, len(runs))
		idx     = make([]int, len(runs))
		metrics = make([]string, len(runs))
		values  = make([]float64, len(runs))
	)
	for i, r := range runs {
		benches[i], idx[i], metrics[i], values[i] = r.Benchmark, r.Run, r.Metric, r.Value
	}
	t := new(table.Builder).
		Add(Benchmark, benches).
		Add("run", idx).
		Add(Metric, metrics).
		Add("value", values).
		Done()

	g := ggstat.Agg(Benchmark, Metric)(ggstat.AggCount(Runs), ggstat.AggMean("value"), ggstat.AggSum("value")).F(t)

	// Agg keeps input columns that happen to be constant within
	// every group. Drop them so the shape does not depend on the data.
	return table.MapTables(g, func(_ table.GroupID, t *table.Table) *table.Table {
		return table.NewBuilder(t).Add("run", nil).Add("value", nil).Done()
	})
}

// Fprint prints g as an aligned text table. A nil g prints nothing.
func Fprint(w io.Writer, g table.Grouping) error {
	if g == nil {
		return nil
	}
	return table.Fprint(w, g, "%s", "%s", "%d", "%.6g", "%.6g")
}
