// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Driver string

	// SQL is an open, migrated pool. Required for DriverPostgres and
	// DriverSQLite.
	SQL *sql.DB

	MongoURI string
	MongoDB  string
}

// Open returns the Store for the configured driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverPostgres:
		if opts.SQL == nil {
			return nil, fmt.Errorf("docstore: postgres driver needs a database pool")
		}
		return NewPostgresStore(opts.SQL), nil
	case DriverSQLite:
		if opts.SQL == nil {
			return nil, fmt.Errorf("docstore: sqlite driver needs a database")
		}
		return NewSQLiteStore(opts.SQL), nil
	case DriverMongo:
		return ConnectMongo(ctx, opts.MongoURI, opts.MongoDB)
	default:
		return nil, fmt.Errorf("docstore: unknown driver %q", opts.Driver)
	}
}
