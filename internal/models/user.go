// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the documents persisted by the content repository
// and the derived shapes returned by the analytics aggregator.
package models

import (
	"slices"
	"time"
)

// Role represents an admin user's permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleAuthor Role = "author"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleAuthor:
		return true
	}
	return false
}

// Permissions consulted for non-admin roles.
const (
	PermPostsWrite      = "posts:write"
	PermCategoriesWrite = "categories:write"
	PermSettingsWrite   = "settings:write"
)

// AdminUser is a role record keyed by the external user id.
type AdminUser struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsAdmin returns true if the user has the admin role.
func (u *AdminUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPermission reports whether the user holds perm. Admins hold every
// permission; other roles need an exact, case-sensitive entry.
func (u *AdminUser) HasPermission(perm string) bool {
	if u.IsAdmin() {
		return true
	}
	return slices.Contains(u.Permissions, perm)
}
