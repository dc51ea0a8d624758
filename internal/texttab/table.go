// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out text tables for terminal output.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Row and Cell return the Table so callers can chain them to build up
// a row at once.
type Table struct {
	rows [][]cell
	cols int
}

type cell struct {
	value      string
	leftMargin string
	alignment  align
}

// A CellOption adjusts the formatting of one cell.
type CellOption func(c *cell)

// LeftMargin sets the text printed to the left of a cell.
func LeftMargin(x string) CellOption {
	return func(c *cell) {
		c.leftMargin = x
	}
}

var (
	Left  CellOption = func(c *cell) { c.alignment = alignLeft }
	Right CellOption = func(c *cell) { c.alignment = alignRight }
)

type align int

const (
	alignLeft align = iota
	alignRight
)

func (a align) pad(s string, w int) string {
	n := w - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if a == alignRight {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// Row starts a new row in table t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell adds a cell at the end of the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	r := &t.rows[len(t.rows)-1]
	c := cell{value: value}
	if len(*r) > 0 {
		c.leftMargin = " "
	}
	for _, o := range opts {
		o(&c)
	}
	*r = append(*r, c)
	if len(*r) > t.cols {
		t.cols = len(*r)
	}
	return t
}

// Format lays out table t and writes it to w. Trailing spaces are
// never printed.
func (t *Table) Format(w io.Writer) error {
	margins := make([]int, t.cols)
	widths := make([]int, t.cols)
	for _, r := range t.rows {
		for i, c := range r {
			margins[i] = max(margins[i], utf8.RuneCountInString(c.leftMargin))
			widths[i] = max(widths[i], utf8.RuneCountInString(c.value))
		}
	}

	var line strings.Builder
	for _, r := range t.rows {
		line.Reset()
		for i, c := range r {
			fmt.Fprintf(&line, "%*s", margins[i], c.leftMargin)
			line.WriteString(c.alignment.pad(c.value, widths[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
