// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package metrics

import (
	"context"
	"errors"

	"quillpress/internal/docstore"
)

// InstrumentedStore wraps a docstore.Store and records the count, result
// and latency of every operation.
type InstrumentedStore struct {
	next docstore.Store
}

// InstrumentStore wraps s.
func InstrumentStore(s docstore.Store) *InstrumentedStore {
	return &InstrumentedStore{next: s}
}

func observe(op, collection string, t *Timer, err error) {
	result := "ok"
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	DocstoreOperations.WithLabelValues(op, collection, result).Inc()
	t.ObserveDuration(DocstoreDuration.WithLabelValues(op, collection))
}

func (s *InstrumentedStore) Get(ctx context.Context, collection, id string) (*docstore.Snapshot, error) {
	t := NewTimer()
	snap, err := s.next.Get(ctx, collection, id)
	observe("get", collection, t, err)
	return snap, err
}

func (s *InstrumentedStore) Query(ctx context.Context, collection string, q docstore.Query) (docstore.Page, error) {
	t := NewTimer()
	page, err := s.next.Query(ctx, collection, q)
	observe("query", collection, t, err)
	return page, err
}

func (s *InstrumentedStore) Count(ctx context.Context, collection string, filters ...docstore.Filter) (int, error) {
	t := NewTimer()
	n, err := s.next.Count(ctx, collection, filters...)
	observe("count", collection, t, err)
	return n, err
}

func (s *InstrumentedStore) Add(ctx context.Context, collection string, data any) (string, error) {
	t := NewTimer()
	id, err := s.next.Add(ctx, collection, data)
	observe("add", collection, t, err)
	return id, err
}

func (s *InstrumentedStore) Set(ctx context.Context, collection, id string, data any) error {
	t := NewTimer()
	err := s.next.Set(ctx, collection, id, data)
	observe("set", collection, t, err)
	return err
}

func (s *InstrumentedStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	t := NewTimer()
	err := s.next.Merge(ctx, collection, id, fields)
	observe("merge", collection, t, err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, collection, id string) error {
	t := NewTimer()
	err := s.next.Delete(ctx, collection, id)
	observe("delete", collection, t, err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
