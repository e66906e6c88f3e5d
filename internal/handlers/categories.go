// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/store"
)

// PostCountReconciler recomputes category postCounts on demand.
// *scheduler.Scheduler satisfies it.
type PostCountReconciler interface {
	RunOnce(ctx context.Context) (int, error)
}

// Categories groups the category endpoints.
type Categories struct {
	categories *store.CategoryStore
	reconciler PostCountReconciler
	cache      Invalidator
}

// NewCategories creates the category handlers. cache may be nil.
func NewCategories(categories *store.CategoryStore, reconciler PostCountReconciler, cache Invalidator) *Categories {
	return &Categories{categories: categories, reconciler: reconciler, cache: cache}
}

// List handles GET /api/categories. With ?tree=true the categories are
// returned nested under their parents.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("tree") == "true" {
		tree, err := h.categories.Tree(r.Context())
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tree)
		return
	}

	list, err := h.categories.List(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/categories.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in store.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCategory(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	in.CreateOnly = true

	id, err := h.categories.Save(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	h.respondWithCategory(w, r, http.StatusCreated, id)
}

// Update handles PUT /api/categories/{id}.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	var in store.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCategory(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	in.ID = id

	if _, err := h.categories.Save(r.Context(), in); err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	h.respondWithCategory(w, r, http.StatusOK, id)
}

// Delete handles DELETE /api/categories/{id}.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.categories.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

type moveRequest struct {
	Direction store.MoveDirection `json:"direction"`
}

// Move handles POST /api/categories/{id}/move with {"direction":"up"|"down"}.
func (h *Categories) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Direction != store.MoveUp && req.Direction != store.MoveDown {
		writeError(w, http.StatusBadRequest, `direction must be "up" or "down"`)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.categories.Move(r.Context(), id, req.Direction); err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.respondWithCategory(w, r, http.StatusOK, id)
}

// Reconcile handles POST /api/categories/reconcile.
func (h *Categories) Reconcile(w http.ResponseWriter, r *http.Request) {
	changed, err := h.reconciler.RunOnce(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"changed": changed})
}

func (h *Categories) respondWithCategory(w http.ResponseWriter, r *http.Request, status int, id string) {
	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, status, c)
}
