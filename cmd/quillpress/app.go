package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"quillpress/internal/analytics"
	"quillpress/internal/cache"
	"quillpress/internal/config"
	"quillpress/internal/database"
	"quillpress/internal/docstore"
	"quillpress/internal/handlers"
	"quillpress/internal/metrics"
	"quillpress/internal/store"
)

// app holds the connections and repositories shared by every command.
// The caller must defer app.Close().
type app struct {
	cfg    *config.Config
	db     *sql.DB
	docs   docstore.Store
	valkey *redis.Client

	activities *store.ActivityStore
	categories *store.CategoryStore
	posts      *store.PostStore
	admins     *store.AdminStore
	settings   *store.SiteSettingStore

	views analytics.ViewCounter
	stats *cache.StatsCache
}

// newApp connects the configured document store and, when reachable,
// Valkey. Without Valkey, daily counters are kept in process and the
// dashboard is not cached.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	db, err := openSQL(cfg)
	if err != nil {
		return nil, err
	}
	a.db = db

	docs, err := docstore.Open(ctx, docstore.Options{
		Driver:   cfg.DocstoreDriver,
		SQL:      a.db,
		MongoURI: cfg.MongoURI,
		MongoDB:  cfg.MongoDB,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open docstore: %w", err)
	}
	a.docs = metrics.InstrumentStore(docs)

	client, err := cache.ConnectValkey(ctx, cache.ValkeyOptions{
		Host:     cfg.ValkeyHost,
		Port:     cfg.ValkeyPort,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	})
	if err != nil {
		slog.Warn("valkey unavailable, using in-process view counters and no stats cache", "error", err)
		a.views = analytics.NewMemoryViewCounter()
	} else {
		a.valkey = client
		a.views = analytics.NewRedisViewCounter(client)
		a.stats = cache.NewStatsCache(client, cfg.StatsCacheTTL)
	}

	a.activities = store.NewActivityStore(a.docs)
	a.categories = store.NewCategoryStore(a.docs, a.activities)
	a.posts = store.NewPostStore(a.docs, a.categories, a.activities).WithViewRecorder(a.views)
	if cfg.StrictTransitions {
		a.posts.WithTransitionPolicy(store.StrictTransitions)
	}
	a.admins = store.NewAdminStore(a.docs, a.activities)
	a.settings = store.NewSiteSettingStore(a.docs)
	return a, nil
}

// openSQL connects and migrates the SQL database behind the postgres and
// sqlite drivers. Other drivers need none and get a nil pool.
func openSQL(cfg *config.Config) (*sql.DB, error) {
	var (
		db      *sql.DB
		migrate func(*sql.DB) error
		err     error
	)
	switch cfg.DocstoreDriver {
	case docstore.DriverPostgres:
		db, err = database.Connect(cfg.DSN())
		migrate = database.Migrate
	case docstore.DriverSQLite:
		db, err = database.ConnectSQLite(cfg.SQLitePath)
		migrate = database.MigrateSQLite
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// invalidator returns the stats cache as an interface value, or nil when
// there is no cache.
func (a *app) invalidator() handlers.Invalidator {
	if a.stats == nil {
		return nil
	}
	return a.stats
}

// Close releases every connection. Errors are logged.
func (a *app) Close() {
	if a.valkey != nil {
		if err := a.valkey.Close(); err != nil {
			slog.Warn("close valkey", "error", err)
		}
	}
	// SQL-backed docstores own the pool once they are open.
	if a.docs != nil {
		if err := a.docs.Close(); err != nil {
			slog.Warn("close docstore", "error", err)
		}
	} else if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
}
