// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillpress/internal/models"
	"quillpress/internal/store"
)

func createPost(t *testing.T, e *testEnv, body map[string]any) models.Post {
	t.Helper()
	code, resp := e.do(t, "POST", "/api/posts", body)
	require.Equal(t, http.StatusCreated, code, resp.Error)
	return decodeData[models.Post](t, resp)
}

func TestPostLifecycle(t *testing.T) {
	e := newTestEnv(t)

	p := createPost(t, e, map[string]any{"title": "Hello World", "content": "body", "tags": []string{"go"}})
	assert.Equal(t, "hello-world", p.Slug)
	assert.Equal(t, models.PostStatusDraft, p.Status)
	assert.Equal(t, "u-admin", p.Author.ID, "author defaults to the caller")
	assert.Equal(t, 1, e.cache.invalidations)

	code, resp := e.do(t, "GET", "/api/posts/hello-world", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, p.ID, decodeData[models.Post](t, resp).ID)

	code, resp = e.do(t, "PUT", "/api/posts/"+p.ID, map[string]any{"title": "Hello Again"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	updated := decodeData[models.Post](t, resp)
	assert.Equal(t, "Hello Again", updated.Title)
	assert.Equal(t, "body", updated.Content, "absent fields are unchanged")
	assert.Equal(t, "hello-world", updated.Slug)

	code, _ = e.do(t, "DELETE", "/api/posts/"+p.ID, nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = e.do(t, "GET", "/api/posts/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestCreatePostSlugCollision(t *testing.T) {
	e := newTestEnv(t)
	createPost(t, e, map[string]any{"title": "Same"})
	second := createPost(t, e, map[string]any{"title": "Same"})
	assert.Equal(t, "same-2", second.Slug)
}

func TestCreatePostRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing title", map[string]any{"content": "x"}},
		{"blank title", map[string]any{"title": "   "}},
		{"title too long", map[string]any{"title": strings.Repeat("a", 301)}},
		{"unknown status", map[string]any{"title": "x", "status": "pending"}},
		{"unknown field", map[string]any{"title": "x", "tittle": "y"}},
		{"malformed json", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := e.do(t, "POST", "/api/posts", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreatePostWithExistingID(t *testing.T) {
	e := newTestEnv(t)
	p := createPost(t, e, map[string]any{"title": "Original", "content": "kept"})

	code, resp := e.do(t, "POST", "/api/posts", map[string]any{"id": p.ID, "title": "Hijacked"})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)

	got, err := e.posts.Get(t.Context(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Original", got.Title)

	code, resp = e.do(t, "POST", "/api/posts", map[string]any{"id": "chosen-id", "title": "Keyed"})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	assert.Equal(t, "chosen-id", decodeData[models.Post](t, resp).ID)
}

func TestUpdateMissingPost(t *testing.T) {
	e := newTestEnv(t)
	code, _ := e.do(t, "PUT", "/api/posts/nope", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListPostsFilters(t *testing.T) {
	e := newTestEnv(t)
	createPost(t, e, map[string]any{"title": "Draft"})
	createPost(t, e, map[string]any{"title": "Live", "status": "published", "featured": true, "tags": []string{"go"}})

	code, resp := e.do(t, "GET", "/api/posts?status=published", nil)
	require.Equal(t, http.StatusOK, code)
	page := decodeData[store.PostPage](t, resp)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "Live", page.Posts[0].Title)

	code, resp = e.do(t, "GET", "/api/posts?featured=false", nil)
	require.Equal(t, http.StatusOK, code)
	page = decodeData[store.PostPage](t, resp)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "Draft", page.Posts[0].Title)

	code, resp = e.do(t, "GET", "/api/posts?tag=go&limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeData[store.PostPage](t, resp).Posts, 1)
}

func TestListPostsPaginates(t *testing.T) {
	e := newTestEnv(t)
	for range 5 {
		createPost(t, e, map[string]any{"title": "Post"})
	}

	seen := map[string]bool{}
	path := "/api/posts?limit=2"
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5, "pagination did not terminate")
		code, resp := e.do(t, "GET", path, nil)
		require.Equal(t, http.StatusOK, code)
		page := decodeData[store.PostPage](t, resp)
		for _, p := range page.Posts {
			assert.False(t, seen[p.ID], "post %s returned twice", p.ID)
			seen[p.ID] = true
		}
		if page.Cursor == "" {
			break
		}
		path = "/api/posts?limit=2&cursor=" + string(page.Cursor)
	}
	assert.Len(t, seen, 5)
}

func TestListPostsRejectsBadQuery(t *testing.T) {
	e := newTestEnv(t)
	for _, q := range []string{"status=pending", "featured=maybe", "limit=ten", "cursor=%21%21"} {
		t.Run(q, func(t *testing.T) {
			code, resp := e.do(t, "GET", "/api/posts?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSetStatus(t *testing.T) {
	e := newTestEnv(t)
	p := createPost(t, e, map[string]any{"title": "Status"})

	code, resp := e.do(t, "POST", "/api/posts/"+p.ID+"/status", map[string]any{"status": "published"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	published := decodeData[models.Post](t, resp)
	assert.Equal(t, models.PostStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)

	code, _ = e.do(t, "POST", "/api/posts/"+p.ID+"/status", map[string]any{"status": "gone"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, "POST", "/api/posts/missing/status", map[string]any{"status": "draft"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSetStatusStrictPolicy(t *testing.T) {
	e := newTestEnv(t)
	e.posts.WithTransitionPolicy(store.StrictTransitions)
	p := createPost(t, e, map[string]any{"title": "Old", "status": "archived"})

	code, resp := e.do(t, "POST", "/api/posts/"+p.ID+"/status", map[string]any{"status": "published"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "transition")
}

func TestRecordView(t *testing.T) {
	e := newTestEnv(t)
	p := createPost(t, e, map[string]any{"title": "Viewed"})

	for range 3 {
		code, _ := e.do(t, "POST", "/api/posts/"+p.ID+"/view", nil)
		require.Equal(t, http.StatusOK, code)
	}

	got, err := e.posts.FindByID(t.Context(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.ViewCount)

	code, _ := e.do(t, "POST", "/api/posts/missing/view", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRequestsWithoutIdentity(t *testing.T) {
	e := newTestEnv(t)
	code, resp := e.doAs(t, "", "GET", "/api/posts", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
}
