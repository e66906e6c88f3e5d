// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"quillpress/internal/analytics"
)

// Dashboard serves the analytics endpoints. The aggregator never fails;
// degraded sources come back as zeros or sample data.
type Dashboard struct {
	agg *analytics.Aggregator
}

// NewDashboard creates the dashboard handlers.
func NewDashboard(agg *analytics.Aggregator) *Dashboard {
	return &Dashboard{agg: agg}
}

// Stats handles GET /api/dashboard/stats.
func (h *Dashboard) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agg.DashboardStats(r.Context()))
}

// Views handles GET /api/dashboard/views?days=N.
func (h *Dashboard) Views(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", analytics.DefaultDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.agg.ViewsData(r.Context(), days))
}

// Popular handles GET /api/dashboard/popular?limit=N.
func (h *Dashboard) Popular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.agg.PopularPosts(r.Context(), limit))
}

// Categories handles GET /api/dashboard/categories.
func (h *Dashboard) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.agg.CategoryData(r.Context()))
}

// Activity handles GET /api/dashboard/activity?limit=N.
func (h *Dashboard) Activity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.agg.RecentActivities(r.Context(), limit))
}

// Users handles GET /api/dashboard/users?days=N.
func (h *Dashboard) Users(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", analytics.DefaultDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.agg.UserActivityData(r.Context(), days))
}
