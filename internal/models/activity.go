// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	ActivityPostCreated     ActivityType = "post_created"
	ActivityPostUpdated     ActivityType = "post_updated"
	ActivityPostPublished   ActivityType = "post_published"
	ActivityPostDeleted     ActivityType = "post_deleted"
	ActivityCategoryCreated ActivityType = "category_created"
	ActivityCategoryDeleted ActivityType = "category_deleted"
	ActivityUserRegistered  ActivityType = "user_registered"
	ActivityMediaUploaded   ActivityType = "media_uploaded"
	ActivitySettingsUpdated ActivityType = "settings_updated"
)

// Activity is an append-only log entry.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Message     string       `json:"message"`
	User        string       `json:"user"`
	UserID      string       `json:"userId"`
	EntityID    string       `json:"entityId,omitempty"`
	EntityTitle string       `json:"entityTitle,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
