// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests. Every test runs against the in-memory document store.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"quillpress/internal/analytics"
	"quillpress/internal/docstore"
	"quillpress/internal/middleware"
	"quillpress/internal/models"
	"quillpress/internal/scheduler"
	"quillpress/internal/store"
)

type countingCache struct {
	invalidations int
}

func (c *countingCache) InvalidateAll(context.Context) { c.invalidations++ }

type testEnv struct {
	router     chi.Router
	posts      *store.PostStore
	categories *store.CategoryStore
	admins     *store.AdminStore
	views      *analytics.MemoryViewCounter
	cache      *countingCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	docs := docstore.NewMemoryStore()
	activities := store.NewActivityStore(docs)
	categories := store.NewCategoryStore(docs, activities)
	views := analytics.NewMemoryViewCounter()
	posts := store.NewPostStore(docs, categories, activities).WithViewRecorder(views)
	admins := store.NewAdminStore(docs, activities)
	settings := store.NewSiteSettingStore(docs)
	cache := &countingCache{}

	admin, author := models.RoleAdmin, models.RoleAuthor
	_, err := admins.Save(context.Background(), store.AdminUserInput{UserID: "u-admin", Role: &admin})
	require.NoError(t, err)
	_, err = admins.Save(context.Background(), store.AdminUserInput{UserID: "u-author", Role: &author})
	require.NoError(t, err)

	agg := analytics.New(analytics.Sources{
		Posts:      posts,
		Categories: categories,
		Users:      admins,
		Activities: activities,
		Views:      views,
	})
	sched := scheduler.New(categories, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ph := NewPosts(posts, cache)
	ch := NewCategories(categories, sched, cache)
	uh := NewUsers(admins, cache)
	dh := NewDashboard(agg)
	sh := NewSettings(settings, activities)

	r := chi.NewRouter()
	r.Use(middleware.RequireUser(views))
	r.Get("/api/posts", ph.List)
	r.Post("/api/posts", ph.Create)
	r.Get("/api/posts/{id}", ph.Get)
	r.Put("/api/posts/{id}", ph.Update)
	r.Delete("/api/posts/{id}", ph.Delete)
	r.Post("/api/posts/{id}/status", ph.SetStatus)
	r.Post("/api/posts/{id}/view", ph.RecordView)
	r.Get("/api/categories", ch.List)
	r.Post("/api/categories", ch.Create)
	r.Post("/api/categories/reconcile", ch.Reconcile)
	r.Put("/api/categories/{id}", ch.Update)
	r.Delete("/api/categories/{id}", ch.Delete)
	r.Post("/api/categories/{id}/move", ch.Move)
	r.Get("/api/admin/users", uh.List)
	r.Put("/api/admin/users/{id}", uh.Update)
	r.Delete("/api/admin/users/{id}", uh.Delete)
	r.Get("/api/dashboard/stats", dh.Stats)
	r.Get("/api/dashboard/views", dh.Views)
	r.Get("/api/dashboard/popular", dh.Popular)
	r.Get("/api/dashboard/categories", dh.Categories)
	r.Get("/api/dashboard/activity", dh.Activity)
	r.Get("/api/dashboard/users", dh.Users)
	r.Get("/api/settings", sh.Get)
	r.Put("/api/settings", sh.Update)

	return &testEnv{
		router:     r,
		posts:      posts,
		categories: categories,
		admins:     admins,
		views:      views,
		cache:      cache,
	}
}

// apiResponse mirrors the response envelope with the payload left raw.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// do sends a request as u-admin.
func (e *testEnv) do(t *testing.T, method, path string, body any) (int, apiResponse) {
	t.Helper()
	return e.doAs(t, "u-admin", method, path, body)
}

func (e *testEnv) doAs(t *testing.T, userID, method, path string, body any) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w.Code, resp
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}
