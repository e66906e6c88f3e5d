// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"quillpress/internal/models"
	"quillpress/internal/store"
)

// Settings serves the site settings document.
type Settings struct {
	settings *store.SiteSettingStore
	activity *store.ActivityStore
}

// NewSettings creates the settings handlers.
func NewSettings(settings *store.SiteSettingStore, activity *store.ActivityStore) *Settings {
	return &Settings{settings: settings, activity: activity}
}

// Get handles GET /api/settings.
func (h *Settings) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Update handles PUT /api/settings.
func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	var in store.SiteSettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateSettings(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	s, err := h.settings.Update(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.activity.Log(r.Context(), models.Activity{
		Type:    models.ActivitySettingsUpdated,
		Message: "Updated site settings",
	})
	writeJSON(w, http.StatusOK, s)
}
