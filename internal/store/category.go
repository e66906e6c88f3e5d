// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"quillpress/internal/docstore"
	"quillpress/internal/models"
	"quillpress/internal/slug"
)

// CategoryStore manages categories in the document store.
type CategoryStore struct {
	docs       docstore.Store
	activities *ActivityStore
	clock      Clock
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(docs docstore.Store, activities *ActivityStore) *CategoryStore {
	return &CategoryStore{docs: docs, activities: activities, clock: RealClock{}}
}

// WithClock replaces the clock. Intended for tests.
func (s *CategoryStore) WithClock(c Clock) *CategoryStore {
	s.clock = c
	return s
}

// CategoryInput is a partial category for Save. Nil fields are left
// unchanged on update. An empty ParentID moves the category to the root.
type CategoryInput struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	ParentID    *string `json:"parentId"`
	Order       *int    `json:"order"`
	CoverImage  *string `json:"coverImage"`
	Color       *string `json:"color"`
	// CreateOnly makes Save fail with ErrConflict instead of updating the
	// category when ID already exists.
	CreateOnly bool `json:"-"`
}

func decodeCategory(snap *docstore.Snapshot) (*models.Category, error) {
	var c models.Category
	if err := snap.DataTo(&c); err != nil {
		return nil, err
	}
	c.ID = snap.ID
	return &c, nil
}

// List returns all categories ordered by order ascending.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	err := scanAll(ctx, s.docs, CategoriesCollection, docstore.Query{OrderBy: "order"}, func(snap *docstore.Snapshot) error {
		c, err := decodeCategory(snap)
		if err != nil {
			return err
		}
		items = append(items, *c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// Count returns the number of categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	n, err := s.docs.Count(ctx, CategoriesCollection)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// Tree returns categories as a nested tree structure.
func (s *CategoryStore) Tree(ctx context.Context) ([]models.CategoryNode, error) {
	flat, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(flat, "", 0), nil
}

// buildTree recursively builds a tree from a flat list. Categories whose
// parent no longer exists are not reachable from the root.
func buildTree(flat []models.Category, parentID string, depth int) []models.CategoryNode {
	var result []models.CategoryNode
	for _, c := range flat {
		if parentOf(&c) == parentID {
			result = append(result, models.CategoryNode{
				Category: c,
				Depth:    depth,
				Children: buildTree(flat, c.ID, depth+1),
			})
		}
	}
	return result
}

func parentOf(c *models.Category) string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}

// FindByID retrieves a category by id. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	snap, err := s.docs.Get(ctx, CategoriesCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return decodeCategory(snap)
}

// Get looks a category up by id, then by slug. Returns nil if neither
// matches.
func (s *CategoryStore) Get(ctx context.Context, idOrSlug string) (*models.Category, error) {
	c, err := s.FindByID(ctx, idOrSlug)
	if err != nil || c != nil {
		return c, err
	}
	snap, err := findBySlug(ctx, s.docs, CategoriesCollection, idOrSlug)
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	if snap == nil {
		return nil, nil
	}
	return decodeCategory(snap)
}

// Save creates or merge-updates a category and returns its id. A new
// category takes its slug from the name when none is given; an existing
// category's slug only changes when one is passed explicitly.
func (s *CategoryStore) Save(ctx context.Context, in CategoryInput) (string, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return "", invalid("name", "must not be empty")
	}
	if in.Order != nil && *in.Order < 0 {
		return "", invalid("order", "must not be negative")
	}

	var existing *models.Category
	if in.ID != "" {
		var err error
		if existing, err = s.FindByID(ctx, in.ID); err != nil {
			return "", err
		}
	}
	if existing == nil {
		return s.create(ctx, in)
	}
	if in.CreateOnly {
		return "", fmt.Errorf("%w: category %s", ErrConflict, in.ID)
	}
	return existing.ID, s.update(ctx, existing, in)
}

func (s *CategoryStore) create(ctx context.Context, in CategoryInput) (string, error) {
	if in.Name == nil {
		return "", invalid("name", "is required")
	}
	name := strings.TrimSpace(*in.Name)

	base := name
	if in.Slug != nil && *in.Slug != "" {
		base = *in.Slug
	}
	base = slug.Generate(base)
	if base == "" {
		return "", invalid("slug", "cannot be derived from "+name)
	}
	sl, err := uniqueSlug(ctx, s.docs, CategoriesCollection, base, in.ID)
	if err != nil {
		return "", err
	}

	var parentID *string
	if in.ParentID != nil && *in.ParentID != "" {
		if *in.ParentID == in.ID {
			return "", ErrCategoryCycle
		}
		if err := s.checkParent(ctx, in.ID, *in.ParentID); err != nil {
			return "", err
		}
		parentID = in.ParentID
	}

	order := 0
	if in.Order != nil {
		order = *in.Order
	} else if order, err = s.nextOrder(ctx, parentID); err != nil {
		return "", err
	}

	now := stamp(s.clock)
	c := models.Category{
		Name:      name,
		Slug:      sl,
		ParentID:  parentID,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.CoverImage != nil {
		c.CoverImage = *in.CoverImage
	}
	if in.Color != nil {
		c.Color = *in.Color
	}

	id := in.ID
	if id == "" {
		if id, err = s.docs.Add(ctx, CategoriesCollection, c); err != nil {
			return "", fmt.Errorf("create category: %w", err)
		}
	} else if err := s.docs.Set(ctx, CategoriesCollection, id, c); err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}

	s.activities.Log(ctx, models.Activity{
		Type:        models.ActivityCategoryCreated,
		Message:     "Created category " + name,
		EntityID:    id,
		EntityTitle: name,
	})
	return id, nil
}

func (s *CategoryStore) update(ctx context.Context, existing *models.Category, in CategoryInput) error {
	fields := map[string]any{"updatedAt": stamp(s.clock)}

	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil && *in.Slug != existing.Slug {
		base := slug.Generate(*in.Slug)
		if base == "" {
			return invalid("slug", "must contain letters or digits")
		}
		sl, err := uniqueSlug(ctx, s.docs, CategoriesCollection, base, existing.ID)
		if err != nil {
			return err
		}
		fields["slug"] = sl
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.ParentID != nil {
		if *in.ParentID == "" {
			fields["parentId"] = nil
		} else {
			if err := s.checkParent(ctx, existing.ID, *in.ParentID); err != nil {
				return err
			}
			fields["parentId"] = *in.ParentID
		}
	}
	if in.Order != nil {
		fields["order"] = *in.Order
	}
	if in.CoverImage != nil {
		fields["coverImage"] = *in.CoverImage
	}
	if in.Color != nil {
		fields["color"] = *in.Color
	}

	if err := s.docs.Merge(ctx, CategoriesCollection, existing.ID, fields); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// checkParent verifies that parentID exists and that making it the parent
// of id would not create a cycle.
func (s *CategoryStore) checkParent(ctx context.Context, id, parentID string) error {
	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return ErrCategoryCycle
		}
		if seen[cur] {
			// Pre-existing cycle above us; refuse to attach to it.
			return ErrCategoryCycle
		}
		seen[cur] = true

		c, err := s.FindByID(ctx, cur)
		if err != nil {
			return err
		}
		if c == nil {
			if cur == parentID {
				return invalid("parentId", "category "+parentID+" does not exist")
			}
			return nil
		}
		cur = parentOf(c)
	}
	return nil
}

// nextOrder returns max(order)+1 among the siblings under parentID.
func (s *CategoryStore) nextOrder(ctx context.Context, parentID *string) (int, error) {
	siblings, err := s.siblings(ctx, deref(parentID))
	if err != nil {
		return 0, err
	}
	next := 0
	for _, c := range siblings {
		if c.Order >= next {
			next = c.Order + 1
		}
	}
	return next, nil
}

func (s *CategoryStore) siblings(ctx context.Context, parentID string) ([]models.Category, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Category
	for _, c := range all {
		if parentOf(&c) == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// MoveDirection is the direction of a Move.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// Move swaps the category's order with its adjacent sibling. Orders are not
// renormalized, so gaps may accumulate. Moving past either edge is a no-op.
func (s *CategoryStore) Move(ctx context.Context, id string, dir MoveDirection) error {
	if dir != MoveUp && dir != MoveDown {
		return invalid("direction", "must be up or down")
	}
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}

	siblings, err := s.siblings(ctx, parentOf(c))
	if err != nil {
		return err
	}
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].Order != siblings[j].Order {
			return siblings[i].Order < siblings[j].Order
		}
		return siblings[i].ID < siblings[j].ID
	})

	idx := -1
	for i := range siblings {
		if siblings[i].ID == id {
			idx = i
			break
		}
	}
	target := idx - 1
	if dir == MoveDown {
		target = idx + 1
	}
	if idx < 0 || target < 0 || target >= len(siblings) {
		return nil
	}

	neighbor := siblings[target]
	mine, theirs := neighbor.Order, c.Order
	if mine == theirs {
		// Equal orders would swap to the same values; step past instead.
		if dir == MoveUp {
			mine = theirs - 1
		} else {
			mine = theirs + 1
		}
		if mine < 0 {
			mine, theirs = 0, 1
		}
	}

	now := stamp(s.clock)
	if err := s.docs.Merge(ctx, CategoriesCollection, c.ID, map[string]any{"order": mine, "updatedAt": now}); err != nil {
		return fmt.Errorf("move category: %w", err)
	}
	if err := s.docs.Merge(ctx, CategoriesCollection, neighbor.ID, map[string]any{"order": theirs, "updatedAt": now}); err != nil {
		return fmt.Errorf("move category: %w", err)
	}
	return nil
}

// Delete removes a category. Its id is stripped from every post that
// references it and its children move up to its parent. Those follow-up
// writes are independent; a failure is returned after the category itself
// is gone and the reconciliation job repairs counters.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}

	if err := s.docs.Delete(ctx, CategoriesCollection, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	now := stamp(s.clock)
	postQuery := docstore.Query{}.Where("categories", docstore.OpArrayContains, id)
	err = scanAll(ctx, s.docs, PostsCollection, postQuery, func(snap *docstore.Snapshot) error {
		var p models.Post
		if err := snap.DataTo(&p); err != nil {
			return err
		}
		kept := make([]string, 0, len(p.Categories))
		for _, cid := range p.Categories {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		return s.docs.Merge(ctx, PostsCollection, snap.ID, map[string]any{"categories": kept, "updatedAt": now})
	})
	if err != nil {
		return fmt.Errorf("strip category from posts: %w", err)
	}

	var newParent any
	if c.ParentID != nil {
		newParent = *c.ParentID
	}
	childQuery := docstore.Query{}.Where("parentId", docstore.OpEqual, id)
	err = scanAll(ctx, s.docs, CategoriesCollection, childQuery, func(snap *docstore.Snapshot) error {
		return s.docs.Merge(ctx, CategoriesCollection, snap.ID, map[string]any{"parentId": newParent, "updatedAt": now})
	})
	if err != nil {
		return fmt.Errorf("reparent child categories: %w", err)
	}

	s.activities.Log(ctx, models.Activity{
		Type:        models.ActivityCategoryDeleted,
		Message:     "Deleted category " + c.Name,
		EntityID:    id,
		EntityTitle: c.Name,
	})
	return nil
}

// adjustPostCount adds delta to the cached postCount, never going below
// zero. Callers treat failures as best effort.
func (s *CategoryStore) adjustPostCount(ctx context.Context, id string, delta int) error {
	c, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	n := max(c.PostCount+delta, 0)
	return s.docs.Merge(ctx, CategoriesCollection, id, map[string]any{"postCount": n})
}

// adjustPostCounts applies the membership delta between before and after.
func (s *CategoryStore) adjustPostCounts(ctx context.Context, before, after []string) {
	was := make(map[string]bool, len(before))
	for _, id := range before {
		was[id] = true
	}
	is := make(map[string]bool, len(after))
	for _, id := range after {
		is[id] = true
		if !was[id] {
			if err := s.adjustPostCount(ctx, id, 1); err != nil {
				slog.Warn("failed to increment category post count", "category_id", id, "error", err)
			}
		}
	}
	for _, id := range before {
		if !is[id] {
			if err := s.adjustPostCount(ctx, id, -1); err != nil {
				slog.Warn("failed to decrement category post count", "category_id", id, "error", err)
			}
		}
	}
}

// ReconcilePostCounts recomputes every category's postCount from actual
// post membership and returns how many categories changed. It is
// idempotent and safe to run at any time.
func (s *CategoryStore) ReconcilePostCounts(ctx context.Context) (int, error) {
	counts := map[string]int{}
	err := scanAll(ctx, s.docs, PostsCollection, docstore.Query{}, func(snap *docstore.Snapshot) error {
		var p struct {
			Categories []string `json:"categories"`
		}
		if err := snap.DataTo(&p); err != nil {
			return err
		}
		for _, id := range dedupe(p.Categories) {
			counts[id]++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count posts per category: %w", err)
	}

	categories, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, c := range categories {
		want := counts[c.ID]
		if c.PostCount == want {
			continue
		}
		if err := s.docs.Merge(ctx, CategoriesCollection, c.ID, map[string]any{"postCount": want}); err != nil {
			return changed, fmt.Errorf("update post count for %s: %w", c.ID, err)
		}
		slog.Info("category post count reconciled", "category_id", c.ID, "from", c.PostCount, "to", want)
		changed++
	}
	return changed, nil
}
