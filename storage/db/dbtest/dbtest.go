// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest provides a scratch database for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/dacapo-gc/dacapostat/storage/db"
	_ "github.com/dacapo-gc/dacapostat/storage/db/sqlite3"
)

// NewDB returns an empty in-memory sqlite3 database. It is closed
// when the test finishes.
func NewDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenSQL("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	// Make sure the database really is empty.
	runs, err := d.Runs(context.Background(), "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("found %d row(s) in Runs, want 0", len(runs))
	}
	return d
}
