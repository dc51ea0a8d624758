// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics extracts GC pause, CPU accounting and live-set
// measurements from filtered GC log lines.
//
// Every extractor takes lines one at a time and produces zero or one
// record per line. Lines that are not pause or accounting reports are
// ignored; a GC log contains many such lines and none of them is an
// error.
package metrics

import (
	"regexp"
	"strconv"
	"strings"
)

// A Pause is one GC pause report, such as
//
//	[13.000s][info][gc] GC(7) Pause Full (System.gc()) 100M->20M(200M) 15.234ms
type Pause struct {
	Ordinal int // 1-based position within the run's filtered stream

	Label string // collection kind, e.g. "Young" or "Full"
	Cause string // parenthesized clause(s) following Label, parentheses included; may be empty

	BeforeMB, AfterMB, HeapMB int64
	Millis                    float64
}

// Full reports whether p is a full collection.
func (p Pause) Full() bool {
	return p.Label == "Full"
}

// A CPU is one GC CPU accounting report, such as
//
//	[13.000s][info][gc,cpu] GC(7) User=0.02s Sys=0.00s Real=0.01s
type CPU struct {
	Ordinal         int
	User, Sys, Real float64 // seconds
}

var (
	pauseRe = regexp.MustCompile(`Pause (\w+) (?:(\(.*\)) )?(\d+)M->(\d+)M\((\d+)M\) (\d+(?:\.\d+)?)ms`)
	cpuRe   = regexp.MustCompile(`User=(\d+\.\d+)s Sys=(\d+\.\d+)s Real=(\d+\.\d+)s`)
)

// ParsePause parses line as a pause report. The returned Pause has no
// ordinal.
func ParsePause(line string) (Pause, bool) {
	// Pause and accounting reports are distinct lines, and the
	// substring test is much cheaper than the regexp.
	if !strings.Contains(line, "Pause ") {
		return Pause{}, false
	}
	m := pauseRe.FindStringSubmatch(line)
	if m == nil {
		return Pause{}, false
	}
	p := Pause{Label: m[1], Cause: m[2]}
	var err error
	if p.BeforeMB, err = strconv.ParseInt(m[3], 10, 64); err != nil {
		return Pause{}, false
	}
	if p.AfterMB, err = strconv.ParseInt(m[4], 10, 64); err != nil {
		return Pause{}, false
	}
	if p.HeapMB, err = strconv.ParseInt(m[5], 10, 64); err != nil {
		return Pause{}, false
	}
	if p.Millis, err = strconv.ParseFloat(m[6], 64); err != nil {
		return Pause{}, false
	}
	return p, true
}

// ParseCPU parses line as a CPU accounting report. The returned CPU
// has no ordinal.
func ParseCPU(line string) (CPU, bool) {
	if !strings.Contains(line, "User=") {
		return CPU{}, false
	}
	m := cpuRe.FindStringSubmatch(line)
	if m == nil {
		return CPU{}, false
	}
	var c CPU
	vals := []*float64{&c.User, &c.Sys, &c.Real}
	for i, v := range vals {
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return CPU{}, false
		}
		*v = f
	}
	return c, true
}
