// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// stats.go caches computed dashboard results as JSON so repeated dashboard
// loads within the TTL skip the full-collection counts.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// statsKeyPrefix is the Valkey key prefix for cached dashboard results.
	statsKeyPrefix = "stats:"

	// DefaultStatsTTL is how long a computed result stays cached.
	DefaultStatsTTL = 30 * time.Second
)

// StatsCache stores dashboard results in Valkey. Every failure is treated
// as a miss.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a new stats cache backed by the given Valkey client.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl == 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dst and reports whether it was
// found.
func (sc *StatsCache) Get(ctx context.Context, key string, dst any) bool {
	val, err := sc.client.Get(ctx, statsKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("stats cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("stats cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("stats cache hit", "key", key)
	return true
}

// Set stores v under key with the configured TTL.
func (sc *StatsCache) Set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("stats cache encode error", "key", key, "error", err)
		return
	}
	if err := sc.client.Set(ctx, statsKeyPrefix+key, raw, sc.ttl).Err(); err != nil {
		slog.Warn("stats cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached result by scanning for the prefix.
// Called after content mutations so the next dashboard load is fresh.
func (sc *StatsCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := sc.client.Scan(ctx, cursor, statsKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("stats cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := sc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("stats cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("stats cache cleared", "deleted", deleted)
	}
}
