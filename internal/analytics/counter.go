// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DateLayout is the key format of daily buckets.
const DateLayout = "2006-01-02"

// ViewCounter is the daily-bucketed telemetry source behind the view series
// and user activity charts. Reads return only days that have data.
type ViewCounter interface {
	RecordView(ctx context.Context, postID string) error
	RecordActiveUser(ctx context.Context, userID string) error
	DailyViews(ctx context.Context, from, to time.Time) (map[string]int64, error)
	DailyActiveUsers(ctx context.Context, from, to time.Time) (map[string]int, error)
}

// days lists the UTC dates from..to inclusive in DateLayout.
func days(from, to time.Time) []string {
	from = truncateDay(from)
	to = truncateDay(to)
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MemoryViewCounter keeps daily counters in process memory. It backs the
// memory docstore driver and tests.
type MemoryViewCounter struct {
	mu     sync.Mutex
	now    func() time.Time
	views  map[string]int64
	active map[string]map[string]struct{}
}

// NewMemoryViewCounter creates an empty counter.
func NewMemoryViewCounter() *MemoryViewCounter {
	return &MemoryViewCounter{
		now:    time.Now,
		views:  make(map[string]int64),
		active: make(map[string]map[string]struct{}),
	}
}

// WithClock replaces the clock used to pick today's bucket.
func (m *MemoryViewCounter) WithClock(now func() time.Time) *MemoryViewCounter {
	m.now = now
	return m
}

// AddViews adds n views to the bucket for day.
func (m *MemoryViewCounter) AddViews(day time.Time, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[truncateDay(day).Format(DateLayout)] += n
}

func (m *MemoryViewCounter) RecordView(_ context.Context, _ string) error {
	m.AddViews(m.now(), 1)
	return nil
}

func (m *MemoryViewCounter) RecordActiveUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := truncateDay(m.now()).Format(DateLayout)
	set, ok := m.active[day]
	if !ok {
		set = make(map[string]struct{})
		m.active[day] = set
	}
	set[userID] = struct{}{}
	return nil
}

func (m *MemoryViewCounter) DailyViews(_ context.Context, from, to time.Time) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	for _, d := range days(from, to) {
		if n, ok := m.views[d]; ok {
			out[d] = n
		}
	}
	return out, nil
}

func (m *MemoryViewCounter) DailyActiveUsers(_ context.Context, from, to time.Time) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, d := range days(from, to) {
		if set, ok := m.active[d]; ok {
			out[d] = len(set)
		}
	}
	return out, nil
}

const (
	viewsKeyPrefix  = "views:"
	activeKeyPrefix = "active:"

	// counterRetention bounds how long daily buckets are kept.
	counterRetention = 400 * 24 * time.Hour
)

// RedisViewCounter stores one INCR key per day for views and one set per
// day for active users.
type RedisViewCounter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisViewCounter creates a counter backed by the given Valkey client.
func NewRedisViewCounter(client *redis.Client) *RedisViewCounter {
	return &RedisViewCounter{client: client, now: time.Now}
}

func (r *RedisViewCounter) today() string {
	return truncateDay(r.now()).Format(DateLayout)
}

func (r *RedisViewCounter) RecordView(ctx context.Context, _ string) error {
	key := viewsKeyPrefix + r.today()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, counterRetention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (r *RedisViewCounter) RecordActiveUser(ctx context.Context, userID string) error {
	key := activeKeyPrefix + r.today()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, userID)
		pipe.Expire(ctx, key, counterRetention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record active user: %w", err)
	}
	return nil
}

func (r *RedisViewCounter) DailyViews(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	dates := days(from, to)
	cmds := make([]*redis.StringCmd, len(dates))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, d := range dates {
			cmds[i] = pipe.Get(ctx, viewsKeyPrefix+d)
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read daily views: %w", err)
	}

	out := make(map[string]int64)
	for i, cmd := range cmds {
		n, err := cmd.Int64()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read daily views %s: %w", dates[i], err)
		}
		out[dates[i]] = n
	}
	return out, nil
}

func (r *RedisViewCounter) DailyActiveUsers(ctx context.Context, from, to time.Time) (map[string]int, error) {
	dates := days(from, to)
	cmds := make([]*redis.IntCmd, len(dates))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, d := range dates {
			cmds[i] = pipe.SCard(ctx, activeKeyPrefix+d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read active users: %w", err)
	}

	out := make(map[string]int)
	for i, cmd := range cmds {
		if n := cmd.Val(); n > 0 {
			out[dates[i]] = int(n)
		}
	}
	return out, nil
}
