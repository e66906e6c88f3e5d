// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package database handles SQL connection management and migration
// execution using goose. Connect returns a PostgreSQL pool for the JSONB
// document store and ConnectSQLite a single-file database; Migrate and
// MigrateSQLite create the documents table in each.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// schema pairs a goose dialect with its migration directory.
type schema struct {
	dialect string
	dir     string
}

var (
	postgresSchema = schema{dialect: "postgres", dir: "migrations/postgres"}
	sqliteSchema   = schema{dialect: "sqlite3", dir: "migrations/sqlite"}
)

func (s schema) prepare() error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	return nil
}

func (s schema) up(db *sql.DB) error {
	if err := s.prepare(); err != nil {
		return err
	}
	if err := goose.Up(db, s.dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	slog.Info("database migrations applied", "dialect", s.dialect)
	return nil
}

func (s schema) version(db *sql.DB) (int64, error) {
	if err := s.prepare(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

// Connect opens a PostgreSQL connection pool using the provided DSN.
// It verifies the connection with a ping before returning.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected", "driver", "postgres")
	return db, nil
}

// Migrate runs all pending PostgreSQL migrations from the embedded files.
func Migrate(db *sql.DB) error {
	return postgresSchema.up(db)
}

// Version reports the current PostgreSQL schema version.
func Version(db *sql.DB) (int64, error) {
	return postgresSchema.version(db)
}
