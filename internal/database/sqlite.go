// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied to the single pooled connection.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA temp_store=MEMORY",
}

// ConnectSQLite opens the database file at path, creating it if needed.
// The pool holds one connection: SQLite serializes writers anyway and the
// pragmas are per connection.
func ConnectSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	slog.Info("database connected", "driver", "sqlite", "path", path)
	return db, nil
}

// MigrateSQLite runs all pending SQLite migrations.
func MigrateSQLite(db *sql.DB) error {
	return sqliteSchema.up(db)
}

// SQLiteVersion reports the current SQLite schema version.
func SQLiteVersion(db *sql.DB) (int64, error) {
	return sqliteSchema.version(db)
}
