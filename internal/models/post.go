// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"slices"
	"time"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Author is the author snapshot embedded in a post at write time.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// SEO holds optional search metadata. Empty fields fall back to the post's
// own fields at render time.
type SEO struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// PostMetadata groups auxiliary post metadata.
type PostMetadata struct {
	SEO SEO `json:"seo"`
}

// Post is a blog post document.
type Post struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Slug         string       `json:"slug"`
	Content      string       `json:"content"`
	Excerpt      string       `json:"excerpt"`
	Author       Author       `json:"author"`
	Categories   []string     `json:"categories"`
	Tags         []string     `json:"tags"`
	Status       PostStatus   `json:"status"`
	Featured     bool         `json:"featured"`
	ViewCount    int64        `json:"viewCount"`
	Likes        int64        `json:"likes"`
	CommentCount int64        `json:"commentCount"`
	PublishedAt  *time.Time   `json:"publishedAt"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Metadata     PostMetadata `json:"metadata"`
	CoverImage   string       `json:"coverImage"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// HasTag reports whether the post carries tag (exact match).
func (p *Post) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// InCategory reports whether the post belongs to the category id.
func (p *Post) InCategory(id string) bool {
	return slices.Contains(p.Categories, id)
}
