// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"fmt"
	"io"

	"github.com/aclements/go-moremath/stats"

	"github.com/dacapo-gc/dacapostat/report"
)

// A PauseSeries is every pause of one run, in log order.
type PauseSeries struct {
	Events []Pause
	Total  float64 // sum of Events[i].Millis
}

// GCPauses extracts the pause reports from lines. Ordinals run from 1
// in the order the pauses appear.
func GCPauses(lines []string) *PauseSeries {
	s := new(PauseSeries)
	for _, line := range lines {
		p, ok := ParsePause(line)
		if !ok {
			continue
		}
		p.Ordinal = len(s.Events) + 1
		s.Events = append(s.Events, p)
		s.Total += p.Millis
	}
	return s
}

// Durations returns the pause durations in milliseconds, indexed by
// ordinal-1.
func (s *PauseSeries) Durations() []float64 {
	xs := make([]float64, len(s.Events))
	for i, p := range s.Events {
		xs[i] = p.Millis
	}
	return xs
}

// Table returns the per-run pause report.
func (s *PauseSeries) Table() *report.Table {
	t := report.New("Event", "Pause (ms)")
	for _, p := range s.Events {
		t.Add(fmt.Sprint(p.Ordinal), report.FormatFloat(p.Millis))
	}
	t.Add("Total time", report.FormatFloat(s.Total))
	return t
}

// Summarize prints the pause count and total pause time.
func (s *PauseSeries) Summarize(w io.Writer) {
	fmt.Fprintf(w, "GC count: %d\n", len(s.Events))
	fmt.Fprintf(w, "GC total time: %sms\n", report.FormatFloat(s.Total))
}

// A CPUSeries is every CPU accounting report of one run, in log
// order.
type CPUSeries struct {
	Samples []CPU

	// Totals per component, in seconds.
	User, Sys, Real float64
}

// CPUUsage extracts the CPU accounting reports from lines.
func CPUUsage(lines []string) *CPUSeries {
	s := new(CPUSeries)
	for _, line := range lines {
		c, ok := ParseCPU(line)
		if !ok {
			continue
		}
		c.Ordinal = len(s.Samples) + 1
		s.Samples = append(s.Samples, c)
		s.User += c.User
		s.Sys += c.Sys
		s.Real += c.Real
	}
	return s
}

// CPUTimes returns user+sys seconds for each sample, indexed by
// ordinal-1.
func (s *CPUSeries) CPUTimes() []float64 {
	xs := make([]float64, len(s.Samples))
	for i, c := range s.Samples {
		xs[i] = c.User + c.Sys
	}
	return xs
}

// Table returns the per-run CPU report.
func (s *CPUSeries) Table() *report.Table {
	t := report.New("Event", "User (s)", "Sys (s)", "Real (s)")
	for _, c := range s.Samples {
		t.Add(fmt.Sprint(c.Ordinal), report.FormatFloat(c.User), report.FormatFloat(c.Sys), report.FormatFloat(c.Real))
	}
	t.Add("Total", report.FormatFloat(s.User), report.FormatFloat(s.Sys), report.FormatFloat(s.Real))
	return t
}

// Summarize prints the CPU totals.
func (s *CPUSeries) Summarize(w io.Writer) {
	fmt.Fprintf(w, "CPU Usage: User=%s Sys=%s Real=%s\n",
		report.FormatFloat(s.User), report.FormatFloat(s.Sys), report.FormatFloat(s.Real))
}

// A LiveSeries is the full collections of one run. The heap occupancy
// after a full collection is the live set.
type LiveSeries struct {
	Events []Pause
}

// LiveSet extracts the full-collection pause reports from lines.
// Ordinals count full collections only.
func LiveSet(lines []string) *LiveSeries {
	s := new(LiveSeries)
	for _, line := range lines {
		p, ok := ParsePause(line)
		if !ok || !p.Full() {
			continue
		}
		p.Ordinal = len(s.Events) + 1
		s.Events = append(s.Events, p)
	}
	return s
}

// After returns the post-collection heap occupancy in megabytes,
// indexed by ordinal-1.
func (s *LiveSeries) After() []float64 {
	xs := make([]float64, len(s.Events))
	for i, p := range s.Events {
		xs[i] = float64(p.AfterMB)
	}
	return xs
}

// Average returns the mean live-set size in megabytes, or 0 if there
// were no full collections.
func (s *LiveSeries) Average() float64 {
	if len(s.Events) == 0 {
		return 0
	}
	return stats.Mean(s.After())
}

// Table returns the per-run live-set report.
func (s *LiveSeries) Table() *report.Table {
	t := report.New("Event", "Before (MB)", "After (MB)")
	for _, p := range s.Events {
		t.Add(fmt.Sprint(p.Ordinal), fmt.Sprint(p.BeforeMB), fmt.Sprint(p.AfterMB))
	}
	t.Add("Average live-set", "", report.FormatFloat(s.Average()))
	return t
}

// Summarize prints the full collection count and the average live
// set, truncated to whole megabytes.
func (s *LiveSeries) Summarize(w io.Writer) {
	fmt.Fprintf(w, "GC count: %d\n", len(s.Events))
	if len(s.Events) > 0 {
		fmt.Fprintf(w, "Average liveset size %dM\n", int64(s.Average()))
	}
}
