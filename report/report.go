// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report writes the tables produced by dacapostat.
//
// A report is a header row followed by body rows of strings. Reports
// are written as CSV, one row per line, and are always regenerated:
// writing to an existing file replaces it.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dacapo-gc/dacapostat/internal/texttab"
)

// A Table is a header row and an ordered sequence of body rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// New returns a table with the given header.
func New(header ...string) *Table {
	return &Table{Header: header}
}

// Add appends a body row to t.
func (t *Table) Add(row ...string) {
	t.Rows = append(t.Rows, row)
}

// check reports an error if any row has a different number of fields
// than the header.
func (t *Table) check() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(t.Header))
		}
	}
	return nil
}

// WriteCSV writes t to w as CSV, header first.
func WriteCSV(w io.Writer, t *Table) error {
	if err := t.check(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes t as CSV to the named file, replacing any existing
// content.
func WriteFile(path string, t *Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := WriteCSV(f, t); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// FormatText writes t to w as an aligned text table. The first column
// is left aligned and the remaining columns are right aligned.
func FormatText(w io.Writer, t *Table) error {
	var tab texttab.Table
	row := func(cells []string) {
		tab.Row()
		for i, c := range cells {
			if i == 0 {
				tab.Cell(c)
			} else {
				tab.Cell(c, texttab.Right)
			}
		}
	}
	row(t.Header)
	for _, r := range t.Rows {
		row(r)
	}
	return tab.Format(w)
}

// FormatFloat formats v with the fewest digits that represent it
// exactly, so 15.234 prints as "15.234" and 0 as "0".
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
