// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillpress/internal/models"
)

var (
	testNow  = time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)
	errStub  = errors.New("backend down")
	testDay  = func(offset int) time.Time { return truncateDay(testNow).AddDate(0, 0, offset) }
	fixedNow = func() time.Time { return testNow }
)

type stubPosts struct {
	counts  map[models.PostStatus]int
	views   int64
	popular []models.Post
	err     error
}

func (s *stubPosts) CountByStatus(_ context.Context, status models.PostStatus) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[status], nil
}

func (s *stubPosts) TotalViews(context.Context) (int64, error) {
	return s.views, s.err
}

func (s *stubPosts) Popular(_ context.Context, limit int) ([]models.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.popular) > limit {
		return s.popular[:limit], nil
	}
	return s.popular, nil
}

type stubCategories struct {
	list []models.Category
	err  error
}

func (s *stubCategories) List(context.Context) ([]models.Category, error) { return s.list, s.err }
func (s *stubCategories) Count(context.Context) (int, error)             { return len(s.list), s.err }

type stubUsers struct {
	list []models.AdminUser
	err  error
}

func (s *stubUsers) List(context.Context) ([]models.AdminUser, error) { return s.list, s.err }
func (s *stubUsers) Count(context.Context) (int, error)             { return len(s.list), s.err }

type stubActivities struct {
	items []models.Activity
	err   error
}

func (s *stubActivities) Recent(_ context.Context, limit int) ([]models.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.items) > limit {
		return s.items[:limit], nil
	}
	return s.items, nil
}

// mapCache round-trips values through JSON like the Valkey cache does.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (c *mapCache) Get(_ context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *mapCache) Set(_ context.Context, key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, _ := json.Marshal(v)
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = raw
	c.sets++
}

func healthySources() Sources {
	return Sources{
		Posts: &stubPosts{
			counts: map[models.PostStatus]int{
				"":                         6,
				models.PostStatusPublished: 3,
				models.PostStatusDraft:     2,
				models.PostStatusArchived:  1,
			},
			views: 1234,
		},
		Categories: &stubCategories{list: []models.Category{{Name: "A"}, {Name: "B"}}},
		Users:      &stubUsers{list: []models.AdminUser{{UserID: "u1"}}},
		Activities: &stubActivities{},
		Views:      NewMemoryViewCounter().WithClock(fixedNow),
	}
}

func TestViewsTrend(t *testing.T) {
	tests := []struct {
		name          string
		prev, current int64
		want          int
	}{
		{"growth", 100, 150, 50},
		{"decline", 200, 100, -50},
		{"flat", 80, 80, 0},
		{"rounds", 3, 4, 33},
		{"from zero", 0, 50, 100},
		{"both zero", 0, 0, 0},
		{"to zero", 10, 0, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ViewsTrend(tt.prev, tt.current))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 75, Percentage(3, 4))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 0, Percentage(5, 0))
}

func TestDashboardStats(t *testing.T) {
	src := healthySources()
	counter := src.Views.(*MemoryViewCounter)
	// Current week: 150 views, previous week: 100.
	counter.AddViews(testDay(0), 100)
	counter.AddViews(testDay(-6), 50)
	counter.AddViews(testDay(-7), 60)
	counter.AddViews(testDay(-13), 40)
	counter.AddViews(testDay(-14), 999) // outside both windows

	stats := New(src).WithClock(fixedNow).DashboardStats(context.Background())

	assert.Equal(t, models.DashboardStats{
		TotalPosts:      6,
		PublishedPosts:  3,
		DraftPosts:      2,
		ArchivedPosts:   1,
		TotalCategories: 2,
		TotalUsers:      1,
		TotalViews:      1234,
		ViewsTrend:      50,
	}, stats)
}

func TestDashboardStatsDegradesFailedSources(t *testing.T) {
	src := healthySources()
	src.Posts = &stubPosts{err: errStub}
	src.Views = nil

	stats := New(src).WithClock(fixedNow).DashboardStats(context.Background())

	assert.Zero(t, stats.TotalPosts)
	assert.Zero(t, stats.TotalViews)
	assert.Zero(t, stats.ViewsTrend)
	assert.Equal(t, 2, stats.TotalCategories)
	assert.Equal(t, 1, stats.TotalUsers)
}

func TestDashboardStatsUsesCache(t *testing.T) {
	cache := &mapCache{}
	src := healthySources()
	agg := New(src).WithClock(fixedNow).WithCache(cache)

	first := agg.DashboardStats(context.Background())
	require.Equal(t, 1, cache.sets)

	// Changes behind the cache are not visible until it expires.
	src.Posts.(*stubPosts).counts[""] = 99
	second := agg.DashboardStats(context.Background())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestWeekViewsWithoutCounter(t *testing.T) {
	src := healthySources()
	src.Views = nil
	assert.Equal(t, models.WeekViews{}, New(src).WeekViews(context.Background()))
}

func TestViewsDataMeasured(t *testing.T) {
	src := healthySources()
	counter := src.Views.(*MemoryViewCounter)
	for i := 0; i < 7; i++ {
		counter.AddViews(testDay(-i), int64(i+1))
	}

	series := New(src).WithClock(fixedNow).ViewsData(context.Background(), 7)

	assert.Equal(t, models.SourceMeasured, series.Source)
	require.Len(t, series.Points, 7)
	assert.Equal(t, testDay(-6).Format(DateLayout), series.Points[0].Date)
	assert.Equal(t, int64(7), series.Points[0].Views)
	assert.Equal(t, testDay(0).Format(DateLayout), series.Points[6].Date)
	assert.Equal(t, int64(1), series.Points[6].Views)
}

func TestViewsDataSampleWhenBucketsMissing(t *testing.T) {
	src := healthySources()
	counter := src.Views.(*MemoryViewCounter)
	counter.AddViews(testDay(0), 5)

	agg := New(src).WithClock(fixedNow)
	series := agg.ViewsData(context.Background(), 0)

	assert.Equal(t, models.SourceSample, series.Source)
	require.Len(t, series.Points, DefaultDays)
	assert.Equal(t, testDay(-(DefaultDays - 1)).Format(DateLayout), series.Points[0].Date)
	for _, p := range series.Points {
		assert.GreaterOrEqual(t, p.Views, int64(100))
		assert.Less(t, p.Views, int64(1100))
	}

	again := agg.ViewsData(context.Background(), 0)
	assert.Equal(t, series, again, "sample data is deterministic")
}

func TestViewsDataWithoutCounter(t *testing.T) {
	src := healthySources()
	src.Views = nil
	series := New(src).WithClock(fixedNow).ViewsData(context.Background(), 10_000)
	assert.Equal(t, models.SourceSample, series.Source)
	assert.Len(t, series.Points, MaxDays)
}

func TestPopularPosts(t *testing.T) {
	src := healthySources()
	src.Posts = &stubPosts{popular: []models.Post{
		{ID: "p1", Title: "One", Slug: "one", ViewCount: 50},
		{ID: "p2", Title: "Two", Slug: "two", ViewCount: 10},
	}}
	agg := New(src)

	got := agg.PopularPosts(context.Background(), 1)
	assert.Equal(t, []models.PopularPost{{ID: "p1", Title: "One", Slug: "one", ViewCount: 50}}, got)

	src.Posts = &stubPosts{err: errStub}
	agg = New(src)
	got = agg.PopularPosts(context.Background(), 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCategoryData(t *testing.T) {
	src := healthySources()
	src.Categories = &stubCategories{list: []models.Category{
		{Name: "Small", PostCount: 1},
		{Name: "Big", PostCount: 3},
	}}

	got := New(src).CategoryData(context.Background())

	assert.Equal(t, []models.CategoryData{
		{Name: "Big", Count: 3, Percentage: 75},
		{Name: "Small", Count: 1, Percentage: 25},
	}, got)
}

func TestCategoryDataZeroTotal(t *testing.T) {
	src := healthySources()
	got := New(src).CategoryData(context.Background())
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Zero(t, c.Percentage)
	}

	src.Categories = &stubCategories{err: errStub}
	assert.Empty(t, New(src).CategoryData(context.Background()))
}

func TestRecentActivities(t *testing.T) {
	src := healthySources()
	src.Activities = &stubActivities{items: make([]models.Activity, 15)}
	assert.Len(t, New(src).RecentActivities(context.Background(), 0), 10)
	assert.Len(t, New(src).RecentActivities(context.Background(), 3), 3)

	src.Activities = &stubActivities{err: errStub}
	assert.Empty(t, New(src).RecentActivities(context.Background(), 5))
}

func TestUserActivityData(t *testing.T) {
	src := healthySources()
	src.Users = &stubUsers{list: []models.AdminUser{
		{UserID: "u1", CreatedAt: testDay(0).Add(time.Hour)},
		{UserID: "u2", CreatedAt: testDay(0).Add(2 * time.Hour)},
		{UserID: "u3", CreatedAt: testDay(-2)},
		{UserID: "old", CreatedAt: testDay(-40)},
	}}
	counter := src.Views.(*MemoryViewCounter)
	ctx := context.Background()
	require.NoError(t, counter.RecordActiveUser(ctx, "u1"))
	require.NoError(t, counter.RecordActiveUser(ctx, "u1"))
	require.NoError(t, counter.RecordActiveUser(ctx, "u2"))

	series := New(src).WithClock(fixedNow).UserActivityData(ctx, 3)

	assert.Equal(t, models.SourceMeasured, series.Source)
	assert.Equal(t, []models.UserActivity{
		{Date: testDay(-2).Format(DateLayout), NewUsers: 1},
		{Date: testDay(-1).Format(DateLayout)},
		{Date: testDay(0).Format(DateLayout), NewUsers: 2, ActiveUsers: 2},
	}, series.Days)
}

func TestUserActivityDataSampleWithoutCounter(t *testing.T) {
	src := healthySources()
	src.Views = nil
	series := New(src).WithClock(fixedNow).UserActivityData(context.Background(), 7)
	assert.Equal(t, models.SourceSample, series.Source)
	assert.Len(t, series.Days, 7)
}
