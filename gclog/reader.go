// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gclog reads JVM unified GC logs and drops the lines written
// during a benchmark's warmup phase.
//
// A GC log line is decorated with the JVM uptime in seconds, for
// example:
//
//	[13.042s][info][gc] GC(12) Pause Full (System.gc()) 100M->20M(200M) 15.234ms
//
// Only the first bracketed uptime on a line is significant. Lines
// with no uptime (blank separators, continuation lines) are never
// part of a filtered stream.
package gclog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// A Line is one line of a GC log.
type Line struct {
	// Text is the line with surrounding white space removed.
	Text string

	// Time is the JVM uptime in seconds. It is only meaningful if
	// HasTime is set.
	Time    float64
	HasTime bool

	// Num is the 1-based line number within the file.
	Num int
}

// A Reader reads a GC log line by line.
//
// Its API is modeled on bufio.Scanner. The Line returned by Line is
// overwritten by the next call to Scan.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     Line
	err      error
}

// NewReader returns a Reader that reads from r. fileName is used in
// error messages only.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	s := bufio.NewScanner(r)
	// JVM logs can carry very long heap-region lines.
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{s: s, fileName: fileName}
}

// Scan advances to the next line and reports whether there was one.
// When Scan returns false, Err reports any I/O error.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line.Num+1, err)
		}
		return false
	}
	r.line.Num++
	r.line.Text = strings.TrimSpace(r.s.Text())
	r.line.Time, r.line.HasTime = ParseTime(r.line.Text)
	return true
}

// Line returns the line read by the last call to Scan.
func (r *Reader) Line() *Line {
	return &r.line
}

// Err returns the I/O error that stopped Scan, if any.
func (r *Reader) Err() error {
	return r.err
}

var timeRe = regexp.MustCompile(`\[(\d+\.\d+)s\]`)

// ParseTime returns the uptime embedded in line as "[<float>s]".
func ParseTime(line string) (float64, bool) {
	if strings.IndexByte(line, '[') < 0 {
		return 0, false
	}
	m := timeRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
