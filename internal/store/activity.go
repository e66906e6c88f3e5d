// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// activity.go records loggable actions (post create/update/publish, user
// registration, media upload) in an append-only log shown on the dashboard.

package store

import (
	"context"
	"fmt"
	"log/slog"

	"quillpress/internal/docstore"
	"quillpress/internal/models"
)

// ActivityStore appends to and reads the activity log.
type ActivityStore struct {
	docs  docstore.Store
	clock Clock
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(docs docstore.Store) *ActivityStore {
	return &ActivityStore{docs: docs, clock: RealClock{}}
}

// WithClock replaces the clock. Intended for tests.
func (s *ActivityStore) WithClock(c Clock) *ActivityStore {
	s.clock = c
	return s
}

// Log appends an entry. The actor is taken from ctx when the entry carries
// no user. Failures are logged and swallowed; the activity log is
// informational and must not fail the action being recorded.
func (s *ActivityStore) Log(ctx context.Context, a models.Activity) {
	if a.UserID == "" {
		actor := ActorFrom(ctx)
		a.UserID, a.User = actor.ID, actor.Name
	}
	if a.User == "" {
		a.User = a.UserID
	}
	a.Timestamp = stamp(s.clock)

	id, err := s.docs.Add(ctx, ActivityCollection, a)
	if err != nil {
		slog.Warn("failed to log activity",
			"type", a.Type,
			"entity_id", a.EntityID,
			"error", err,
		)
		return
	}
	slog.Debug("activity logged", "id", id, "type", a.Type, "entity_id", a.EntityID)
}

// Recent returns the most recent entries, newest first.
func (s *ActivityStore) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	page, err := s.docs.Query(ctx, ActivityCollection, docstore.Query{
		OrderBy:   "timestamp",
		Direction: docstore.Desc,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	items := make([]models.Activity, 0, len(page.Docs))
	for _, snap := range page.Docs {
		var a models.Activity
		if err := snap.DataTo(&a); err != nil {
			return nil, err
		}
		a.ID = snap.ID
		items = append(items, a)
	}
	return items, nil
}
