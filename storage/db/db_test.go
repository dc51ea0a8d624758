// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	. "github.com/dacapo-gc/dacapostat/storage/db"
	"github.com/dacapo-gc/dacapostat/storage/db/dbtest"
)

func TestInsertRun(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	runs := []*Run{
		{Benchmark: "fop", Run: 2, Mode: "gc", Metric: "pause_ms", Boundary: 12.5, Values: []float64{15.234, 2}, Events: 2, Total: 17.234},
		{Benchmark: "fop", Run: 1, Mode: "gc", Metric: "pause_ms", Boundary: 11, Values: []float64{1}, Events: 1, Total: 1},
		{Benchmark: "fop", Run: 1, Mode: "runtime", Metric: "runtime_ms", Boundary: math.NaN(), Events: 1, Total: 4200},
		{Benchmark: "h2", Run: 1, Mode: "gc", Metric: "pause_ms", Boundary: 3, Events: 0, Total: 0},
	}
	for _, r := range runs {
		if err := db.InsertRun(ctx, r); err != nil {
			t.Fatalf("InsertRun(%+v): %v", r, err)
		}
		if r.ID == 0 {
			t.Errorf("InsertRun did not assign an ID to %+v", r)
		}
	}

	got, err := db.Runs(ctx, "fop", true)
	if err != nil {
		t.Fatal(err)
	}
	want := []*Run{runs[1], runs[2], runs[0]}
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Runs (-want +got):\n%s", diff)
	}

	got, err = db.Runs(ctx, "h2", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Values != nil {
		t.Errorf("want one h2 run without values, got %+v", got)
	}

	got, err = db.Runs(ctx, "avrora", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("want no avrora runs, got %d", len(got))
	}
}
