// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// DataSource tells consumers whether a series was measured or synthesized.
type DataSource string

const (
	SourceMeasured DataSource = "measured"
	SourceSample   DataSource = "sample"
)

// DashboardStats holds the dashboard totals. It is derived per request.
type DashboardStats struct {
	TotalPosts      int   `json:"totalPosts"`
	PublishedPosts  int   `json:"publishedPosts"`
	DraftPosts      int   `json:"draftPosts"`
	ArchivedPosts   int   `json:"archivedPosts"`
	TotalCategories int   `json:"totalCategories"`
	TotalUsers      int   `json:"totalUsers"`
	TotalViews      int64 `json:"totalViews"`
	ViewsTrend      int   `json:"viewsTrend"`
}

// DataPoint is one daily bucket of a series. Date is YYYY-MM-DD.
type DataPoint struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// TimeSeries is a daily view series.
type TimeSeries struct {
	Source DataSource  `json:"source"`
	Points []DataPoint `json:"points"`
}

// PopularPost is a post ranked by views.
type PopularPost struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	ViewCount int64  `json:"viewCount"`
}

// CategoryData is one slice of the category distribution.
type CategoryData struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// UserActivity is one day of user activity.
type UserActivity struct {
	Date        string `json:"date"`
	NewUsers    int    `json:"newUsers"`
	ActiveUsers int    `json:"activeUsers"`
}

// UserActivitySeries is a daily user activity series.
type UserActivitySeries struct {
	Source DataSource     `json:"source"`
	Days   []UserActivity `json:"days"`
}

// WeekViews is the week-over-week views rollup.
type WeekViews struct {
	Current  int64 `json:"current"`
	Previous int64 `json:"previous"`
}
