// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quillpress/internal/docstore"
	"quillpress/internal/models"
)

// siteSettingsID is the key of the single settings document.
const siteSettingsID = "site"

// SiteSettingStore manages the site settings document.
type SiteSettingStore struct {
	docs  docstore.Store
	clock Clock
}

// NewSiteSettingStore returns a new SiteSettingStore.
func NewSiteSettingStore(docs docstore.Store) *SiteSettingStore {
	return &SiteSettingStore{docs: docs, clock: RealClock{}}
}

// SiteSettingsInput is a partial settings update.
type SiteSettingsInput struct {
	SiteName        *string `json:"siteName"`
	SiteDescription *string `json:"siteDescription"`
	SiteLogo        *string `json:"siteLogo"`
	OGImage         *string `json:"ogImage"`
	PostsPerPage    *int    `json:"postsPerPage"`
}

// Get returns the current settings, or the defaults if none were saved.
func (s *SiteSettingStore) Get(ctx context.Context) (models.SiteSettings, error) {
	settings := models.DefaultSiteSettings()
	snap, err := s.docs.Get(ctx, SettingsCollection, siteSettingsID)
	if errors.Is(err, docstore.ErrNotFound) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("get site settings: %w", err)
	}
	if err := snap.DataTo(&settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Update merges the given fields into the settings and returns the result.
// Image fields are URLs from the media subsystem and are stored verbatim.
func (s *SiteSettingStore) Update(ctx context.Context, in SiteSettingsInput) (models.SiteSettings, error) {
	if in.SiteName != nil && strings.TrimSpace(*in.SiteName) == "" {
		return models.SiteSettings{}, invalid("siteName", "must not be empty")
	}
	if in.PostsPerPage != nil && (*in.PostsPerPage < 1 || *in.PostsPerPage > MaxPostLimit) {
		return models.SiteSettings{}, invalid("postsPerPage", fmt.Sprintf("must be between 1 and %d", MaxPostLimit))
	}

	current, err := s.Get(ctx)
	if err != nil {
		return current, err
	}
	if in.SiteName != nil {
		current.SiteName = strings.TrimSpace(*in.SiteName)
	}
	if in.SiteDescription != nil {
		current.SiteDescription = *in.SiteDescription
	}
	if in.SiteLogo != nil {
		current.SiteLogo = *in.SiteLogo
	}
	if in.OGImage != nil {
		current.OGImage = *in.OGImage
	}
	if in.PostsPerPage != nil {
		current.PostsPerPage = *in.PostsPerPage
	}
	current.UpdatedAt = stamp(s.clock)

	if err := s.docs.Set(ctx, SettingsCollection, siteSettingsID, current); err != nil {
		return current, fmt.Errorf("update site settings: %w", err)
	}
	return current, nil
}
