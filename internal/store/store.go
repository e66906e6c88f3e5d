// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the content repositories on top of a
// docstore.Store: posts, categories, admin roles, the activity log, and
// site settings. Repositories are stateless; every call goes to the
// document store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quillpress/internal/docstore"
	"quillpress/internal/slug"
)

// Collection names.
const (
	PostsCollection      = "posts"
	CategoriesCollection = "categories"
	AdminsCollection     = "admins"
	ActivityCollection   = "activities"
	SettingsCollection   = "settings"
)

var (
	// ErrNotFound is returned by mutations that target a missing entity.
	// Read lookups return nil, nil instead.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the sentinel wrapped by ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the actor may not perform an action.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a create targets an id that is taken.
	ErrConflict = errors.New("already exists")

	// ErrInvalidTransition is returned by a strict transition policy.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCategoryCycle is returned when a parent assignment would create a
	// cycle in the category tree.
	ErrCategoryCycle = errors.New("category parent cycle")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Clock abstracts the current time so tests are deterministic.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// stamp returns the current time at stored precision.
func stamp(c Clock) time.Time {
	return docstore.Timestamp(c.Now())
}

// Actor identifies who performs a mutation. It is attached to the request
// context by the API boundary and recorded in the activity log.
type Actor struct {
	ID   string
	Name string
}

type actorKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored in ctx, or the zero Actor.
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// scanPageSize bounds each page when a repository walks a full collection.
const scanPageSize = 200

// scanAll pages through every document matching q and calls fn for each.
// q.Limit and q.StartAfter are managed here.
func scanAll(ctx context.Context, docs docstore.Store, collection string, q docstore.Query, fn func(*docstore.Snapshot) error) error {
	q.Limit = scanPageSize
	q.StartAfter = ""
	for {
		page, err := docs.Query(ctx, collection, q)
		if err != nil {
			return err
		}
		for _, snap := range page.Docs {
			if err := fn(snap); err != nil {
				return err
			}
		}
		if page.Next == "" {
			return nil
		}
		q.StartAfter = page.Next
	}
}

// maxSlugAttempts caps the suffix search for a free slug.
const maxSlugAttempts = 1000

// uniqueSlug returns base, or base-2, base-3, ... whichever is first not
// used by a document other than selfID in collection.
func uniqueSlug(ctx context.Context, docs docstore.Store, collection, base, selfID string) (string, error) {
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.WithSuffix(base, n)
		page, err := docs.Query(ctx, collection, docstore.Query{
			Filters: []docstore.Filter{docstore.Where("slug", docstore.OpEqual, candidate)},
			Limit:   2,
		})
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		taken := false
		for _, snap := range page.Docs {
			if snap.ID != selfID {
				taken = true
				break
			}
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", invalid("slug", "no free slug for "+base)
}

// findBySlug returns the first document whose slug equals s.
func findBySlug(ctx context.Context, docs docstore.Store, collection, s string) (*docstore.Snapshot, error) {
	page, err := docs.Query(ctx, collection, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("slug", docstore.OpEqual, s)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Docs) == 0 {
		return nil, nil
	}
	return page.Docs[0], nil
}

// dedupe drops empty and repeated strings, keeping first occurrence order.
// A nil input stays nil so callers can tell "unset" from "empty".
func dedupe(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
