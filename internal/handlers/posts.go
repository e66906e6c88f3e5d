// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/docstore"
	"quillpress/internal/models"
	"quillpress/internal/store"
)

// Posts groups the post endpoints.
type Posts struct {
	posts *store.PostStore
	cache Invalidator
}

// NewPosts creates the post handlers. cache may be nil.
func NewPosts(posts *store.PostStore, cache Invalidator) *Posts {
	return &Posts{posts: posts, cache: cache}
}

// List handles GET /api/posts. Supported query parameters: status,
// category, tag, featured, author, limit and cursor.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := queryInt(r, "limit", store.DefaultPostLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := store.PostFilter{
		Status:   models.PostStatus(q.Get("status")),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		AuthorID: q.Get("author"),
		Limit:    limit,
		Cursor:   docstore.Cursor(q.Get("cursor")),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status "+string(f.Status))
		return
	}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "featured must be a boolean")
			return
		}
		f.Featured = &featured
	}

	page, err := h.posts.List(r.Context(), f)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/posts/{id}. The id may also be a slug.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create handles POST /api/posts. A caller-chosen id is allowed but must
// not belong to an existing post; updates go through PUT.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var in store.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validatePost(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	in.CreateOnly = true

	id, err := h.posts.Save(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	h.respondWithPost(w, r, http.StatusCreated, id)
}

// Update handles PUT /api/posts/{id}. Only the fields present in the
// body change.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	var in store.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validatePost(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	in.ID = existing.ID
	in.RequireExisting = true

	if _, err := h.posts.Save(r.Context(), in); err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	h.respondWithPost(w, r, http.StatusOK, existing.ID)
}

// Delete handles DELETE /api/posts/{id}.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err := h.posts.Delete(r.Context(), existing.ID); err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	writeJSON(w, http.StatusOK, map[string]string{"id": existing.ID})
}

type statusRequest struct {
	Status models.PostStatus `json:"status"`
}

// SetStatus handles POST /api/posts/{id}/status.
func (h *Posts) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.posts.SetStatus(r.Context(), id, req.Status); err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	h.respondWithPost(w, r, http.StatusOK, id)
}

// RecordView handles POST /api/posts/{id}/view.
func (h *Posts) RecordView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.posts.IncrementViews(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Posts) respondWithPost(w http.ResponseWriter, r *http.Request, status int, id string) {
	p, err := h.posts.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, status, p)
}
