// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timing reads the timing log written by the DaCapo harness
// callback.
//
// The callback prints one line per benchmark iteration:
//
//	Warmup: Benchmark ended 12.500000s
//	Measurable: Benchmark ended 14.125000s
//
// where the time is measured from JVM start, the same origin as the
// uptime decoration on GC log lines. The harness itself prints a
// completion banner when the final iteration passes:
//
//	===== DaCapo 23.11-chopin avrora PASSED in 4200 msec =====
package timing

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoWarmup is returned when a timing log contains no
	// warmup-completion line.
	ErrNoWarmup = errors.New("no warmup-completion line")

	// ErrNoBanner is returned when a timing log contains no
	// completion banner.
	ErrNoBanner = errors.New("no completion banner")
)

// maxLine is the longest line the timing readers accept. Harness
// output can carry long classpath and option dumps.
const maxLine = 1024 * 1024

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLine)
	return s
}

var (
	warmupRe = regexp.MustCompile(`Warmup: Benchmark ended (\d+\.\d+)s`)
	bannerRe = regexp.MustCompile(`===== DaCapo (\S+) (.+?) PASSED in (\d+) msec =====`)
)

// WarmupEnd returns the time in seconds reported by the last
// warmup-completion line in r. Every iteration before the measured
// one prints such a line, so the whole input is scanned and the final
// match wins.
//
// If no line matches, WarmupEnd returns ErrNoWarmup.
func WarmupEnd(r io.Reader) (float64, error) {
	var (
		end   float64
		found bool
	)
	s := newScanner(r)
	for s.Scan() {
		line := s.Text()
		if !strings.Contains(line, "Warmup:") {
			continue
		}
		m := warmupRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		end, found = v, true
	}
	if err := s.Err(); err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNoWarmup
	}
	return end, nil
}

// ReadWarmupEnd is like WarmupEnd, but reads the named file.
// Errors opening the file are returned unwrapped, so callers can test
// for fs.ErrNotExist.
func ReadWarmupEnd(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	end, err := WarmupEnd(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return end, nil
}

// A Banner is the completion line the harness prints when a benchmark
// passes.
type Banner struct {
	Version   string // harness version, e.g. "23.11-chopin"
	Benchmark string
	Msec      int64 // elapsed time of the measured iteration
}

// ParseBanner parses line as a completion banner.
func ParseBanner(line string) (Banner, bool) {
	if !strings.Contains(line, "PASSED") {
		return Banner{}, false
	}
	m := bannerRe.FindStringSubmatch(line)
	if m == nil {
		return Banner{}, false
	}
	msec, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Banner{}, false
	}
	return Banner{Version: m[1], Benchmark: m[2], Msec: msec}, true
}

// FindBanner returns the first completion banner in r, or
// ErrNoBanner if there is none.
func FindBanner(r io.Reader) (Banner, error) {
	s := newScanner(r)
	for s.Scan() {
		if b, ok := ParseBanner(s.Text()); ok {
			return b, nil
		}
	}
	if err := s.Err(); err != nil {
		return Banner{}, err
	}
	return Banner{}, ErrNoBanner
}

// ReadBanner is like FindBanner, but reads the named file.
func ReadBanner(path string) (Banner, error) {
	f, err := os.Open(path)
	if err != nil {
		return Banner{}, err
	}
	defer f.Close()
	b, err := FindBanner(f)
	if err != nil {
		return Banner{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
