// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// SiteSettings is the single site-wide settings document. Image fields hold
// URLs produced by the media subsystem and are stored verbatim.
type SiteSettings struct {
	SiteName        string    `json:"siteName"`
	SiteDescription string    `json:"siteDescription"`
	SiteLogo        string    `json:"siteLogo"`
	OGImage         string    `json:"ogImage"`
	PostsPerPage    int       `json:"postsPerPage"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DefaultSiteSettings returns the settings used before any are saved.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{SiteName: "Quillpress", PostsPerPage: 10}
}
