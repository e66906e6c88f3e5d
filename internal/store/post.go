// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"quillpress/internal/docstore"
	"quillpress/internal/markdown"
	"quillpress/internal/models"
	"quillpress/internal/slug"
)

// Post list page size bounds.
const (
	DefaultPostLimit = 10
	MaxPostLimit     = 100
)

// TransitionPolicy decides whether a post may move between two statuses.
type TransitionPolicy func(from, to models.PostStatus) bool

// AllowAllTransitions permits every transition. This is the default.
func AllowAllTransitions(_, _ models.PostStatus) bool { return true }

// StrictTransitions rejects publishing an archived post directly; it must
// be restored to draft first.
func StrictTransitions(from, to models.PostStatus) bool {
	return !(from == models.PostStatusArchived && to == models.PostStatusPublished)
}

// ViewRecorder receives one event per post view. It backs the daily view
// series used by the dashboard.
type ViewRecorder interface {
	RecordView(ctx context.Context, postID string) error
}

// PostStore handles post persistence.
type PostStore struct {
	docs       docstore.Store
	categories *CategoryStore
	activities *ActivityStore
	views      ViewRecorder
	clock      Clock
	policy     TransitionPolicy
}

// NewPostStore creates a new PostStore. Category counters and the activity
// log are maintained through the given stores.
func NewPostStore(docs docstore.Store, categories *CategoryStore, activities *ActivityStore) *PostStore {
	return &PostStore{
		docs:       docs,
		categories: categories,
		activities: activities,
		clock:      RealClock{},
		policy:     AllowAllTransitions,
	}
}

// WithClock replaces the clock. Intended for tests.
func (s *PostStore) WithClock(c Clock) *PostStore {
	s.clock = c
	return s
}

// WithTransitionPolicy replaces the status transition policy.
func (s *PostStore) WithTransitionPolicy(p TransitionPolicy) *PostStore {
	s.policy = p
	return s
}

// WithViewRecorder attaches a recorder notified by IncrementViews.
func (s *PostStore) WithViewRecorder(v ViewRecorder) *PostStore {
	s.views = v
	return s
}

// PostFilter selects posts for List. Status and Category are evaluated by
// the document store. Tag, Featured and AuthorID are applied to the page
// after it is fetched, so a page can hold fewer than Limit posts while
// Cursor is still set; keep following Cursor until it is empty.
type PostFilter struct {
	Status   models.PostStatus
	Category string
	Tag      string
	Featured *bool
	AuthorID string
	Limit    int
	Cursor   docstore.Cursor
}

// PostPage is one page of List results.
type PostPage struct {
	Posts  []models.Post   `json:"posts"`
	Cursor docstore.Cursor `json:"cursor,omitempty"`
}

// PostInput is a partial post for Save. Nil fields are left unchanged on
// update; nil slices mean "unchanged" while empty slices clear the field.
type PostInput struct {
	ID string `json:"id"`
	// RequireExisting makes Save fail with ErrNotFound instead of creating
	// a post when ID does not exist.
	RequireExisting bool `json:"-"`
	// CreateOnly makes Save fail with ErrConflict instead of updating the
	// post when ID already exists.
	CreateOnly bool `json:"-"`

	Title      *string            `json:"title"`
	Slug       *string            `json:"slug"`
	Content    *string            `json:"content"`
	Excerpt    *string            `json:"excerpt"`
	Author     *models.Author     `json:"author"`
	Categories []string           `json:"categories"`
	Tags       []string           `json:"tags"`
	Status     *models.PostStatus `json:"status"`
	Featured   *bool              `json:"featured"`
	CoverImage *string            `json:"coverImage"`
	SEO        *models.SEO        `json:"seo"`
}

func decodePost(snap *docstore.Snapshot) (*models.Post, error) {
	var p models.Post
	if err := snap.DataTo(&p); err != nil {
		return nil, err
	}
	p.ID = snap.ID
	return &p, nil
}

// List returns one page of posts, newest first.
func (s *PostStore) List(ctx context.Context, f PostFilter) (PostPage, error) {
	if f.Status != "" && !f.Status.Valid() {
		return PostPage{}, invalid("status", "unknown status "+string(f.Status))
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = DefaultPostLimit
	case limit > MaxPostLimit:
		limit = MaxPostLimit
	}

	q := docstore.Query{
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      limit,
		StartAfter: f.Cursor,
	}
	if f.Status != "" {
		q = q.Where("status", docstore.OpEqual, string(f.Status))
	}
	if f.Category != "" {
		q = q.Where("categories", docstore.OpArrayContains, f.Category)
	}

	page, err := s.docs.Query(ctx, PostsCollection, q)
	if err != nil {
		return PostPage{}, fmt.Errorf("list posts: %w", err)
	}

	out := PostPage{Posts: make([]models.Post, 0, len(page.Docs)), Cursor: page.Next}
	for _, snap := range page.Docs {
		p, err := decodePost(snap)
		if err != nil {
			return PostPage{}, err
		}
		if f.Tag != "" && !p.HasTag(f.Tag) {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if f.AuthorID != "" && p.Author.ID != f.AuthorID {
			continue
		}
		out.Posts = append(out.Posts, *p)
	}
	return out, nil
}

// FindByID retrieves a post by id. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	snap, err := s.docs.Get(ctx, PostsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return decodePost(snap)
}

// Get looks a post up by id, then by slug. Returns nil if neither matches.
func (s *PostStore) Get(ctx context.Context, idOrSlug string) (*models.Post, error) {
	p, err := s.FindByID(ctx, idOrSlug)
	if err != nil || p != nil {
		return p, err
	}
	snap, err := findBySlug(ctx, s.docs, PostsCollection, idOrSlug)
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	if snap == nil {
		return nil, nil
	}
	return decodePost(snap)
}

// Save creates or merge-updates a post and returns its id. All validation
// runs before the first write. A new post without an excerpt gets one
// derived from its Markdown content.
func (s *PostStore) Save(ctx context.Context, in PostInput) (string, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return "", invalid("title", "must not be empty")
	}
	if in.Status != nil && !in.Status.Valid() {
		return "", invalid("status", "unknown status "+string(*in.Status))
	}
	if in.RequireExisting && in.ID == "" {
		return "", invalid("id", "is required")
	}

	var existing *models.Post
	if in.ID != "" {
		var err error
		if existing, err = s.FindByID(ctx, in.ID); err != nil {
			return "", err
		}
	}
	if existing == nil {
		if in.RequireExisting {
			return "", ErrNotFound
		}
		return s.create(ctx, in)
	}
	if in.CreateOnly {
		return "", fmt.Errorf("%w: post %s", ErrConflict, in.ID)
	}
	return existing.ID, s.update(ctx, existing, in)
}

func (s *PostStore) create(ctx context.Context, in PostInput) (string, error) {
	if in.Title == nil {
		return "", invalid("title", "is required")
	}
	title := strings.TrimSpace(*in.Title)

	base := title
	if in.Slug != nil && *in.Slug != "" {
		base = *in.Slug
	}
	base = slug.Generate(base)
	if base == "" {
		return "", invalid("slug", "cannot be derived from "+title)
	}
	sl, err := uniqueSlug(ctx, s.docs, PostsCollection, base, in.ID)
	if err != nil {
		return "", err
	}

	now := stamp(s.clock)
	p := models.Post{
		Title:      title,
		Slug:       sl,
		Categories: dedupe(in.Categories),
		Tags:       dedupe(in.Tags),
		Status:     models.PostStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Excerpt != nil {
		p.Excerpt = *in.Excerpt
	} else if p.Content != "" {
		p.Excerpt = markdown.Excerpt(p.Content, markdown.DefaultExcerptLen)
	}
	if in.Author != nil {
		p.Author = *in.Author
	} else if actor := ActorFrom(ctx); actor.ID != "" {
		p.Author = models.Author{ID: actor.ID, Name: actor.Name}
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if p.Status == models.PostStatusPublished {
		p.PublishedAt = &now
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.CoverImage != nil {
		p.CoverImage = *in.CoverImage
	}
	if in.SEO != nil {
		p.Metadata.SEO = *in.SEO
	}

	id := in.ID
	if id == "" {
		if id, err = s.docs.Add(ctx, PostsCollection, p); err != nil {
			return "", fmt.Errorf("create post: %w", err)
		}
	} else if err := s.docs.Set(ctx, PostsCollection, id, p); err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}

	s.categories.adjustPostCounts(ctx, nil, p.Categories)

	s.activities.Log(ctx, models.Activity{
		Type:        models.ActivityPostCreated,
		Message:     "Created post " + title,
		EntityID:    id,
		EntityTitle: title,
	})
	if p.Status == models.PostStatusPublished {
		s.logPublished(ctx, id, title)
	}
	return id, nil
}

func (s *PostStore) update(ctx context.Context, existing *models.Post, in PostInput) error {
	now := stamp(s.clock)
	fields := map[string]any{"updatedAt": now}

	title := existing.Title
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		fields["title"] = title
	}
	if in.Slug != nil && *in.Slug != existing.Slug {
		base := slug.Generate(*in.Slug)
		if base == "" {
			return invalid("slug", "must contain letters or digits")
		}
		sl, err := uniqueSlug(ctx, s.docs, PostsCollection, base, existing.ID)
		if err != nil {
			return err
		}
		fields["slug"] = sl
	}

	published := false
	if in.Status != nil && *in.Status != existing.Status {
		if !s.policy(existing.Status, *in.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, existing.Status, *in.Status)
		}
		fields["status"] = *in.Status
		if *in.Status == models.PostStatusPublished {
			published = true
			if existing.PublishedAt == nil {
				fields["publishedAt"] = now
			}
		}
	}

	if in.Content != nil {
		fields["content"] = *in.Content
	}
	if in.Excerpt != nil {
		fields["excerpt"] = *in.Excerpt
	}
	if in.Author != nil {
		fields["author"] = *in.Author
	}
	var categories []string
	if in.Categories != nil {
		categories = dedupe(in.Categories)
		fields["categories"] = categories
	}
	if in.Tags != nil {
		fields["tags"] = dedupe(in.Tags)
	}
	if in.Featured != nil {
		fields["featured"] = *in.Featured
	}
	if in.CoverImage != nil {
		fields["coverImage"] = *in.CoverImage
	}
	if in.SEO != nil {
		fields["metadata"] = models.PostMetadata{SEO: *in.SEO}
	}

	if err := s.docs.Merge(ctx, PostsCollection, existing.ID, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}

	if categories != nil && !sameSet(existing.Categories, categories) {
		s.categories.adjustPostCounts(ctx, existing.Categories, categories)
	}

	if published {
		s.logPublished(ctx, existing.ID, title)
	} else {
		s.activities.Log(ctx, models.Activity{
			Type:        models.ActivityPostUpdated,
			Message:     "Updated post " + title,
			EntityID:    existing.ID,
			EntityTitle: title,
		})
	}
	return nil
}

func (s *PostStore) logPublished(ctx context.Context, id, title string) {
	s.activities.Log(ctx, models.Activity{
		Type:        models.ActivityPostPublished,
		Message:     "Published post " + title,
		EntityID:    id,
		EntityTitle: title,
	})
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	return true
}

// SetStatus moves an existing post to status, subject to the transition
// policy. Publishing sets publishedAt once; nothing ever clears it.
func (s *PostStore) SetStatus(ctx context.Context, id string, status models.PostStatus) error {
	_, err := s.Save(ctx, PostInput{ID: id, RequireExisting: true, Status: &status})
	return err
}

// Delete removes a post and decrements its categories' counters.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if err := s.docs.Delete(ctx, PostsCollection, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	s.categories.adjustPostCounts(ctx, p.Categories, nil)

	s.activities.Log(ctx, models.Activity{
		Type:        models.ActivityPostDeleted,
		Message:     "Deleted post " + p.Title,
		EntityID:    id,
		EntityTitle: p.Title,
	})
	return nil
}

// IncrementViews bumps the post's viewCount and records the view in the
// daily series. The counter update is a read-modify-write, so concurrent
// views may undercount; the daily series is authoritative for analytics.
func (s *PostStore) IncrementViews(ctx context.Context, id string) error {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if err := s.docs.Merge(ctx, PostsCollection, id, map[string]any{"viewCount": p.ViewCount + 1}); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if s.views != nil {
		if err := s.views.RecordView(ctx, id); err != nil {
			slog.Warn("failed to record view", "post_id", id, "error", err)
		}
	}
	return nil
}

// CountByStatus counts posts with the given status, or all posts when
// status is empty.
func (s *PostStore) CountByStatus(ctx context.Context, status models.PostStatus) (int, error) {
	var filters []docstore.Filter
	if status != "" {
		filters = append(filters, docstore.Where("status", docstore.OpEqual, string(status)))
	}
	n, err := s.docs.Count(ctx, PostsCollection, filters...)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// TotalViews sums viewCount over every post.
func (s *PostStore) TotalViews(ctx context.Context) (int64, error) {
	var total int64
	err := scanAll(ctx, s.docs, PostsCollection, docstore.Query{}, func(snap *docstore.Snapshot) error {
		var p struct {
			ViewCount int64 `json:"viewCount"`
		}
		if err := snap.DataTo(&p); err != nil {
			return err
		}
		total += p.ViewCount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sum post views: %w", err)
	}
	return total, nil
}

// Popular returns published posts ordered by viewCount descending.
func (s *PostStore) Popular(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 5
	}
	page, err := s.docs.Query(ctx, PostsCollection, docstore.Query{
		Filters:   []docstore.Filter{docstore.Where("status", docstore.OpEqual, string(models.PostStatusPublished))},
		OrderBy:   "viewCount",
		Direction: docstore.Desc,
		Limit:     min(limit, MaxPostLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("list popular posts: %w", err)
	}
	posts := make([]models.Post, 0, len(page.Docs))
	for _, snap := range page.Docs {
		p, err := decodePost(snap)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}
