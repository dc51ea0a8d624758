// Copyright 2026 The dacapostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores extracted run metrics in a SQL database so that
// results from many batches can be queried together.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"text/template"
)

// DB is a high-level interface to a database of run metrics. It's
// safe for concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertRun   *sql.Stmt
	insertEvent *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Benchmark VARCHAR(255) NOT NULL,
	Run INTEGER NOT NULL,
	Mode VARCHAR(32) NOT NULL,
	Metric VARCHAR(255) NOT NULL,
	Boundary DOUBLE,
	Events INTEGER NOT NULL,
	Total DOUBLE NOT NULL
);
CREATE TABLE IF NOT EXISTS Events (
	RunID BIGINT UNSIGNED,
	Ordinal INTEGER,
	Value DOUBLE,
	PRIMARY KEY (RunID, Ordinal),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RunsBenchmark ON Runs(Benchmark, Run);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(Benchmark, Run, Mode, Metric, Boundary, Events, Total) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertEvent, err = db.sql.Prepare("INSERT INTO Events(RunID, Ordinal, Value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// A Run is the stored result of one metric of one benchmark run.
type Run struct {
	// ID is assigned by InsertRun.
	ID int64

	Benchmark string
	Run       int
	Mode      string // extraction mode, e.g. "gc"
	Metric    string // e.g. "pause_ms"

	// Boundary is the warmup boundary in seconds, or NaN for
	// metrics that are not filtered.
	Boundary float64

	// Values are the per-event values in ordinal order. They are
	// only loaded by Runs if withValues is set.
	Values []float64

	Events int
	Total  float64
}

// InsertRun stores r and its values in a single transaction and sets
// r.ID.
func (db *DB) InsertRun(ctx context.Context, r *Run) (err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var boundary interface{}
	if !math.IsNaN(r.Boundary) {
		boundary = r.Boundary
	}
	res, err := tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, r.Benchmark, r.Run, r.Mode, r.Metric, boundary, r.Events, r.Total)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ins := tx.StmtContext(ctx, db.insertEvent)
	for i, v := range r.Values {
		if _, err := ins.ExecContext(ctx, id, i+1, v); err != nil {
			return err
		}
	}
	r.ID = id
	return nil
}

// Runs returns the stored runs of benchmark, ordered by run index and
// insertion order. If withValues is set, each Run's Values are loaded.
func (db *DB) Runs(ctx context.Context, benchmark string, withValues bool) ([]*Run, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT RunID, Benchmark, Run, Mode, Metric, Boundary, Events, Total FROM Runs WHERE Benchmark = ? ORDER BY Run, RunID", benchmark)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r := new(Run)
		var boundary sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Benchmark, &r.Run, &r.Mode, &r.Metric, &boundary, &r.Events, &r.Total); err != nil {
			return nil, err
		}
		r.Boundary = math.NaN()
		if boundary.Valid {
			r.Boundary = boundary.Float64
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if withValues {
		for _, r := range runs {
			if r.Values, err = db.values(ctx, r.ID); err != nil {
				return nil, err
			}
		}
	}
	return runs, nil
}

func (db *DB) values(ctx context.Context, id int64) ([]float64, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT Value FROM Events WHERE RunID = ? ORDER BY Ordinal", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vs []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	if err := db.insertEvent.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
