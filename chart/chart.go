// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart draws aggregated event tables as line charts.
package chart

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/dacapo-gc/dacapostat/aggregate"
)

// Lines draws one line per run of t, with the event ordinal on the X
// axis, and saves the chart to path. The image format is chosen from
// the extension of path (".png", ".svg", ".pdf").
//
// Runs with no events are left out of the chart. Lines returns an
// error if no run has any events.
func Lines(path, title, ylabel string, t *aggregate.Table) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Event"
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	drawn := 0
	for run := 1; run <= t.Runs; run++ {
		col := t.Column(run)
		if len(col) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(col))
		for i, v := range col {
			pts[i].X = float64(i + 1)
			pts[i].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("run %d: %w", run, err)
		}
		line.Color = plotutil.Color(run - 1)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Run %d", run), line)
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("%s: no events to chart", filepath.Base(path))
	}

	// Widen the chart for long runs so individual events stay visible.
	width := 8 * vg.Inch
	if n := len(t.Events); n > 200 {
		width = vg.Length(n/25) * vg.Inch
		if width > 40*vg.Inch {
			width = 40 * vg.Inch
		}
	}
	return p.Save(width, 4*vg.Inch, path)
}
