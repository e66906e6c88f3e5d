// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package analytics computes the admin dashboard: totals and the
// week-over-week views trend, the daily views series, popular posts, the
// category distribution, recent activity and user activity. Results are
// derived per request. A failing source degrades its part of the result to
// zero or sample data instead of failing the whole dashboard.
package analytics

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"quillpress/internal/metrics"
	"quillpress/internal/models"
)

// PostSource is the post data the aggregator reads.
type PostSource interface {
	CountByStatus(ctx context.Context, status models.PostStatus) (int, error)
	TotalViews(ctx context.Context) (int64, error)
	Popular(ctx context.Context, limit int) ([]models.Post, error)
}

// CategorySource is the category data the aggregator reads.
type CategorySource interface {
	List(ctx context.Context) ([]models.Category, error)
	Count(ctx context.Context) (int, error)
}

// UserSource is the admin user data the aggregator reads.
type UserSource interface {
	List(ctx context.Context) ([]models.AdminUser, error)
	Count(ctx context.Context) (int, error)
}

// ActivitySource is the activity log the aggregator reads.
type ActivitySource interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// Cache stores computed results for a short time.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
}

// Sources wires the aggregator to its data. Views may be nil, in which
// case every series is sample data.
type Sources struct {
	Posts      PostSource
	Categories CategorySource
	Users      UserSource
	Activities ActivitySource
	Views      ViewCounter
}

// Series length bounds.
const (
	DefaultDays = 30
	MaxDays     = 365
)

// Aggregator computes dashboard data.
type Aggregator struct {
	src   Sources
	cache Cache
	now   func() time.Time
}

// New creates an Aggregator.
func New(src Sources) *Aggregator {
	return &Aggregator{src: src, now: time.Now}
}

// WithCache enables result caching for DashboardStats.
func (a *Aggregator) WithCache(c Cache) *Aggregator {
	a.cache = c
	return a
}

// WithClock replaces the clock. Intended for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// ViewsTrend returns the rounded percent change from previous to current.
// Growth from zero is reported as a flat 100; no views in either period
// is 0.
func ViewsTrend(previous, current int64) int {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

// Percentage returns round(part/total*100), or 0 when total is 0.
func Percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// degrade logs a failed source. The caller keeps its zero value.
func degrade(source string, err error) {
	metrics.DashboardSourceFailures.WithLabelValues(source).Inc()
	slog.Warn("dashboard source failed, using default", "source", source, "error", err)
}

const statsCacheKey = "dashboard"

// DashboardStats returns the dashboard totals and the views trend. Every
// count is fetched concurrently.
func (a *Aggregator) DashboardStats(ctx context.Context) models.DashboardStats {
	var stats models.DashboardStats
	if a.cache != nil && a.cache.Get(ctx, statsCacheKey, &stats) {
		return stats
	}

	var week models.WeekViews
	var g errgroup.Group
	count := func(name string, dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				degrade(name, err)
				return nil
			}
			*dst = n
			return nil
		})
	}
	byStatus := func(status models.PostStatus) func(context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			return a.src.Posts.CountByStatus(ctx, status)
		}
	}

	count("total_posts", &stats.TotalPosts, byStatus(""))
	count("published_posts", &stats.PublishedPosts, byStatus(models.PostStatusPublished))
	count("draft_posts", &stats.DraftPosts, byStatus(models.PostStatusDraft))
	count("archived_posts", &stats.ArchivedPosts, byStatus(models.PostStatusArchived))
	count("categories", &stats.TotalCategories, a.src.Categories.Count)
	count("users", &stats.TotalUsers, a.src.Users.Count)
	g.Go(func() error {
		n, err := a.src.Posts.TotalViews(ctx)
		if err != nil {
			degrade("total_views", err)
			return nil
		}
		stats.TotalViews = n
		return nil
	})
	g.Go(func() error {
		week = a.WeekViews(ctx)
		return nil
	})
	_ = g.Wait()

	stats.ViewsTrend = ViewsTrend(week.Previous, week.Current)

	if a.cache != nil {
		a.cache.Set(ctx, statsCacheKey, stats)
	}
	return stats
}

// WeekViews sums the daily counter over the last 7 days (today included)
// and the 7 days before that.
func (a *Aggregator) WeekViews(ctx context.Context) models.WeekViews {
	var week models.WeekViews
	if a.src.Views == nil {
		return week
	}
	today := truncateDay(a.now())
	from := today.AddDate(0, 0, -13)
	counts, err := a.src.Views.DailyViews(ctx, from, today)
	if err != nil {
		degrade("daily_views", err)
		return week
	}
	boundary := today.AddDate(0, 0, -6).Format(DateLayout)
	for day, n := range counts {
		if day >= boundary {
			week.Current += n
		} else {
			week.Previous += n
		}
	}
	return week
}

func clampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	}
	return days
}

// ViewsData returns the daily views for the last days days. When the
// counter has fewer buckets than requested the result is deterministic
// sample data marked with SourceSample.
func (a *Aggregator) ViewsData(ctx context.Context, days int) models.TimeSeries {
	days = clampDays(days)
	today := truncateDay(a.now())
	from := today.AddDate(0, 0, -(days - 1))

	if a.src.Views != nil {
		counts, err := a.src.Views.DailyViews(ctx, from, today)
		if err != nil {
			degrade("daily_views", err)
		} else if len(counts) >= days {
			series := models.TimeSeries{Source: models.SourceMeasured}
			for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
				key := d.Format(DateLayout)
				series.Points = append(series.Points, models.DataPoint{Date: key, Views: counts[key]})
			}
			return series
		}
	}
	return sampleViews(from, days)
}

// PopularPosts returns up to limit published posts by view count.
func (a *Aggregator) PopularPosts(ctx context.Context, limit int) []models.PopularPost {
	if limit <= 0 {
		limit = 5
	}
	posts, err := a.src.Posts.Popular(ctx, limit)
	if err != nil {
		degrade("popular_posts", err)
		return []models.PopularPost{}
	}
	out := make([]models.PopularPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, models.PopularPost{ID: p.ID, Title: p.Title, Slug: p.Slug, ViewCount: p.ViewCount})
	}
	return out
}

// CategoryData returns each category's share of categorized posts, largest
// first. Counts are the cached postCount values.
func (a *Aggregator) CategoryData(ctx context.Context) []models.CategoryData {
	categories, err := a.src.Categories.List(ctx)
	if err != nil {
		degrade("categories", err)
		return []models.CategoryData{}
	}

	total := 0
	for _, c := range categories {
		total += c.PostCount
	}
	out := make([]models.CategoryData, 0, len(categories))
	for _, c := range categories {
		out = append(out, models.CategoryData{
			Name:       c.Name,
			Count:      c.PostCount,
			Percentage: Percentage(c.PostCount, total),
		})
	}
	slices.SortStableFunc(out, func(x, y models.CategoryData) int {
		return cmp.Compare(y.Count, x.Count)
	})
	return out
}

// RecentActivities returns the newest activity log entries.
func (a *Aggregator) RecentActivities(ctx context.Context, limit int) []models.Activity {
	if limit <= 0 {
		limit = 10
	}
	items, err := a.src.Activities.Recent(ctx, limit)
	if err != nil {
		degrade("activities", err)
		return []models.Activity{}
	}
	return items
}

// UserActivityData returns new and active users per day. New users come
// from admin record creation dates and active users from the daily
// counter. Without a counter the series is sample data.
func (a *Aggregator) UserActivityData(ctx context.Context, days int) models.UserActivitySeries {
	days = clampDays(days)
	today := truncateDay(a.now())
	from := today.AddDate(0, 0, -(days - 1))

	if a.src.Views == nil {
		return sampleUserActivity(from, days)
	}

	newUsers := map[string]int{}
	users, err := a.src.Users.List(ctx)
	if err != nil {
		degrade("users", err)
	}
	for _, u := range users {
		newUsers[u.CreatedAt.UTC().Format(DateLayout)]++
	}

	active, err := a.src.Views.DailyActiveUsers(ctx, from, today)
	if err != nil {
		degrade("active_users", err)
		active = map[string]int{}
	}

	series := models.UserActivitySeries{Source: models.SourceMeasured}
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		series.Days = append(series.Days, models.UserActivity{
			Date:        key,
			NewUsers:    newUsers[key],
			ActiveUsers: active[key],
		})
	}
	return series
}
