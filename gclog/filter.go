// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gclog

import (
	"io"
	"os"
)

// Filter returns the lines of r whose uptime is at or after boundary,
// in input order. Lines without an uptime are dropped.
//
// The warmup-ended marker and the first measured event may carry the
// same uptime, so a line exactly at boundary is kept.
func Filter(r io.Reader, boundary float64) ([]string, error) {
	return appendFiltered(nil, NewReader(r, ""), boundary)
}

// FilterFiles filters each of paths against boundary and concatenates
// the results in the order the paths are given. It is used for a run
// whose log was rotated into several fragments.
//
// An error opening any fragment stops filtering and is returned
// unwrapped, so callers can test for fs.ErrNotExist.
func FilterFiles(boundary float64, paths ...string) ([]string, error) {
	var lines []string
	for _, path := range paths {
		var err error
		lines, err = filterFile(lines, path, boundary)
		if err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func filterFile(lines []string, path string, boundary float64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return appendFiltered(lines, NewReader(f, path), boundary)
}

func appendFiltered(lines []string, r *Reader, boundary float64) ([]string, error) {
	for r.Scan() {
		l := r.Line()
		if l.HasTime && l.Time >= boundary {
			lines = append(lines, l.Text)
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
