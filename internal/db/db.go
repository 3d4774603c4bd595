// Package db is the SQLite vertex store: element and vertex tables written
// by the forward extraction, enrichment columns written by an alignment run,
// and a run log keyed by UUID.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/structure.align/internal/monitoring"
)

var logger = monitoring.Component("db")

// ErrMissingTable is returned when a required table is absent.
var ErrMissingTable = errors.New("missing required table")

// pragmas are applied to every connection opened by OpenDB.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

type DB struct {
	*sql.DB
	path string
}

// OpenDB opens (or creates) the database at path without touching its
// schema. Use MigrateUp to create or upgrade tables.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer keeps WAL and the pragmas consistent across the pool.
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	return &DB{DB: db, path: path}, nil
}

// OpenExisting opens a database that must already exist on disk.
func OpenExisting(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}
	return OpenDB(path)
}

// Path returns the file the database was opened from.
func (db *DB) Path() string { return db.path }

// HasTable reports whether the named table exists.
func (db *DB) HasTable(name string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return n > 0, nil
}

// HasColumn reports whether table has the named column.
func (db *DB) HasColumn(table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (db *DB) requireTables(names ...string) error {
	for _, name := range names {
		ok, err := db.HasTable(name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s does not contain a %q table", ErrMissingTable, db.path, name)
		}
	}
	return nil
}

// Snapshot writes a consistent copy of the database to path. The target
// must not exist.
func (db *DB) Snapshot(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("output already exists: %s", path)
	}
	if _, err := db.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to copy database to %s: %w", path, err)
	}
	return nil
}
