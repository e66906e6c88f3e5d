// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category is a hierarchical post category. PostCount is a cached counter
// that may drift from actual post membership until reconciled.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ParentID    *string   `json:"parentId"`
	Order       int       `json:"order"`
	PostCount   int       `json:"postCount"`
	CoverImage  string    `json:"coverImage"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryNode is a category positioned in the category tree.
type CategoryNode struct {
	Category
	Depth    int            `json:"depth"`
	Children []CategoryNode `json:"children,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}
