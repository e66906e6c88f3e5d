// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// memory.go provides an in-process Store used by tests and local development.
// Documents are kept decoded so queries do not re-parse JSON.

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-memory Store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		now:         time.Now,
	}
}

// WithClock replaces the clock used for ServerTimestamp. Intended for tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) collection(name string) map[string]map[string]any {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]map[string]any)
		m.collections[name] = c
	}
	return c
}

func snapshotOf(id string, doc map[string]any) (*Snapshot, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", id, err)
	}
	return &Snapshot{ID: id, Data: raw}, nil
}

// Get returns a document by id.
func (m *MemoryStore) Get(_ context.Context, collection, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshotOf(id, doc)
}

// entry is a decoded document considered by an in-process query.
type entry struct {
	id  string
	doc map[string]any
	key any
}

// normalizeFilters converts filter operands to their decoded JSON form so
// they compare equal to stored values.
func normalizeFilters(filters []Filter) ([]Filter, error) {
	normalized := make([]Filter, len(filters))
	for i, f := range filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("normalize filter %s: %w", f.Field, err)
		}
		normalized[i] = Filter{Field: f.Field, Op: f.Op, Value: v}
	}
	return normalized, nil
}

// paginate orders entries by q.OrderBy then id, skips past q.StartAfter and
// cuts the page at q.Limit. Filters must already be applied.
func paginate(entries []entry, q Query) (Page, error) {
	for i := range entries {
		if q.OrderBy != "" {
			entries[i].key, _ = lookup(entries[i].doc, q.OrderBy)
		}
	}

	less := func(a, b entry) int {
		c := compareValues(a.key, b.key)
		if c == 0 {
			c = compareIDs(a.id, b.id)
		}
		if q.Direction == Desc {
			c = -c
		}
		return c
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) < 0 })

	if q.StartAfter != "" {
		after, err := q.StartAfter.decode()
		if err != nil {
			return Page{}, err
		}
		pivot := entry{id: after.ID, key: after.Value}
		start := sort.Search(len(entries), func(i int) bool { return less(entries[i], pivot) > 0 })
		entries = entries[start:]
	}

	var page Page
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
		last := entries[len(entries)-1]
		page.Next = newCursor(last.key, last.id)
	}
	for _, e := range entries {
		snap, err := snapshotOf(e.id, e.doc)
		if err != nil {
			return Page{}, err
		}
		page.Docs = append(page.Docs, snap)
	}
	return page, nil
}

func (m *MemoryStore) selectEntries(collection string, filters []Filter) ([]entry, error) {
	normalized, err := normalizeFilters(filters)
	if err != nil {
		return nil, err
	}

	var entries []entry
	for id, doc := range m.collections[collection] {
		if matches(doc, normalized) {
			entries = append(entries, entry{id: id, doc: doc})
		}
	}
	return entries, nil
}

// Query runs a filtered, ordered, paginated read.
func (m *MemoryStore) Query(_ context.Context, collection string, q Query) (Page, error) {
	if err := checkQuery(q); err != nil {
		return Page{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := m.selectEntries(collection, q.Filters)
	if err != nil {
		return Page{}, err
	}
	return paginate(entries, q)
}

func compareIDs(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Count returns the number of documents matching every filter.
func (m *MemoryStore) Count(_ context.Context, collection string, filters ...Filter) (int, error) {
	if err := checkQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := m.selectEntries(collection, filters)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Add inserts a document under a generated UUID.
func (m *MemoryStore) Add(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()
	if err := m.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces a document.
func (m *MemoryStore) Set(_ context.Context, collection, id string, data any) error {
	if id == "" {
		return fmt.Errorf("docstore: empty id")
	}
	doc, err := encode(data, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[id] = doc
	return nil
}

// Merge overwrites top-level fields of an existing document.
func (m *MemoryStore) Merge(_ context.Context, collection, id string, fields map[string]any) error {
	patch, err := encode(fields, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	merged := make(map[string]any, len(doc)+len(patch))
	for k, v := range doc {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	m.collections[collection][id] = merged
	return nil
}

// Delete removes a document.
func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
