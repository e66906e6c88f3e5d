// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"quillpress/internal/models"
	"quillpress/internal/store"
)

// Users groups the admin user management endpoints. Routes are mounted
// behind RequireAdmin.
type Users struct {
	admins *store.AdminStore
	cache  Invalidator
}

// NewUsers creates the user handlers. cache may be nil.
func NewUsers(admins *store.AdminStore, cache Invalidator) *Users {
	return &Users{admins: admins, cache: cache}
}

// List handles GET /api/admin/users.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.admins.List(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userUpdateRequest struct {
	Name        *string      `json:"name"`
	Email       *string      `json:"email"`
	Role        *models.Role `json:"role"`
	Permissions []string     `json:"permissions"`
}

// Update handles PUT /api/admin/users/{id}. A role change goes through
// ChangeRole so an admin cannot demote themself; the other fields are
// merged as given. An id with no active record is provisioned with the
// given fields and answers 201.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	target, err := h.admins.Get(r.Context(), targetID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	var req userUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateUserUpdate(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	actorID := store.ActorFrom(r.Context()).ID
	status := http.StatusOK
	if target == nil {
		err := h.admins.Provision(r.Context(), actorID, store.AdminUserInput{
			UserID:      targetID,
			Name:        req.Name,
			Email:       req.Email,
			Role:        req.Role,
			Permissions: req.Permissions,
		})
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		status = http.StatusCreated
	} else {
		if req.Role != nil && *req.Role != target.Role {
			if err := h.admins.ChangeRole(r.Context(), actorID, targetID, *req.Role); err != nil {
				writeStoreError(w, r, err)
				return
			}
		}
		if req.Name != nil || req.Email != nil || req.Permissions != nil {
			in := store.AdminUserInput{
				UserID:      targetID,
				Name:        req.Name,
				Email:       req.Email,
				Permissions: req.Permissions,
			}
			if _, err := h.admins.Save(r.Context(), in); err != nil {
				writeStoreError(w, r, err)
				return
			}
		}
	}
	invalidate(r.Context(), h.cache)

	updated, err := h.admins.Get(r.Context(), targetID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, status, updated)
}

// Delete handles DELETE /api/admin/users/{id}. The record is flagged as
// deleted and stops granting any role.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	actorID := store.ActorFrom(r.Context()).ID
	if err := h.admins.SoftDelete(r.Context(), actorID, targetID); err != nil {
		writeStoreError(w, r, err)
		return
	}
	invalidate(r.Context(), h.cache)
	writeJSON(w, http.StatusOK, map[string]string{"id": targetID})
}
