// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides shared fixtures for the repository tests. Most
// tests run against the in-memory document store; testDB opens PostgreSQL
// for the integration tests and skips when it is not available.

package store

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"quillpress/internal/database"
	"quillpress/internal/docstore"
)

// stubClock returns a fixed time that advances by one second per call so
// createdAt/updatedAt ordering is observable.
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// fixture bundles every repository over one document store.
type fixture struct {
	docs       docstore.Store
	clock      *stubClock
	activities *ActivityStore
	categories *CategoryStore
	posts      *PostStore
	admins     *AdminStore
	settings   *SiteSettingStore
}

func newFixtureWith(t *testing.T, docs docstore.Store) *fixture {
	t.Helper()
	clock := newStubClock()
	activities := NewActivityStore(docs).WithClock(clock)
	categories := NewCategoryStore(docs, activities).WithClock(clock)
	return &fixture{
		docs:       docs,
		clock:      clock,
		activities: activities,
		categories: categories,
		posts:      NewPostStore(docs, categories, activities).WithClock(clock),
		admins:     NewAdminStore(docs, activities).WithClock(clock),
		settings:   NewSiteSettingStore(docs),
	}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, docstore.NewMemoryStore())
}

func ptr[T any](v T) *T { return &v }

func testCtx() context.Context {
	return WithActor(context.Background(), Actor{ID: "u-admin", Name: "Ada"})
}

// testDSN returns the PostgreSQL connection string for testing.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "quillpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "quillpress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanCollections removes every document in the given collections.
func cleanCollections(t *testing.T, db *sql.DB, collections ...string) {
	t.Helper()
	for _, c := range collections {
		db.Exec("DELETE FROM documents WHERE collection = $1", c)
	}
}
