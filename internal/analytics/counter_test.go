// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package analytics

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDays(t *testing.T) {
	from := time.Date(2026, 2, 27, 23, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}, days(from, to))
	assert.Empty(t, days(to, from))
}

func TestMemoryViewCounter(t *testing.T) {
	ctx := context.Background()
	now := testNow
	m := NewMemoryViewCounter().WithClock(func() time.Time { return now })

	require.NoError(t, m.RecordView(ctx, "p1"))
	require.NoError(t, m.RecordView(ctx, "p2"))
	require.NoError(t, m.RecordActiveUser(ctx, "u1"))
	require.NoError(t, m.RecordActiveUser(ctx, "u1"))

	now = testNow.AddDate(0, 0, 1)
	require.NoError(t, m.RecordView(ctx, "p1"))
	require.NoError(t, m.RecordActiveUser(ctx, "u2"))

	views, err := m.DailyViews(ctx, testDay(-1), testDay(1))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		testDay(0).Format(DateLayout): 2,
		testDay(1).Format(DateLayout): 1,
	}, views)

	active, err := m.DailyActiveUsers(ctx, testDay(0), testDay(1))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		testDay(0).Format(DateLayout): 1,
		testDay(1).Format(DateLayout): 1,
	}, active)
}

// testValkeyClient returns a client on DB 15 and skips when Valkey is
// unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("VALKEY_PORT")
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	clean := func() {
		for _, prefix := range []string{viewsKeyPrefix, activeKeyPrefix} {
			keys, _ := client.Keys(ctx, prefix+"*").Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
	}
	clean()
	t.Cleanup(func() {
		clean()
		client.Close()
	})
	return client
}

func TestRedisViewCounter(t *testing.T) {
	client := testValkeyClient(t)
	ctx := context.Background()

	r := NewRedisViewCounter(client)
	r.now = fixedNow

	for i := 0; i < 3; i++ {
		require.NoError(t, r.RecordView(ctx, "p1"))
	}
	require.NoError(t, r.RecordActiveUser(ctx, "u1"))
	require.NoError(t, r.RecordActiveUser(ctx, "u1"))
	require.NoError(t, r.RecordActiveUser(ctx, "u2"))

	views, err := r.DailyViews(ctx, testDay(-2), testDay(0))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{testDay(0).Format(DateLayout): 3}, views)

	active, err := r.DailyActiveUsers(ctx, testDay(-2), testDay(0))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{testDay(0).Format(DateLayout): 2}, active)

	ttl, err := client.TTL(ctx, viewsKeyPrefix+testDay(0).Format(DateLayout)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 300*24*time.Hour)
}
