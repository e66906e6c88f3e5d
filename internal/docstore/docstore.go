// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package docstore abstracts a document database behind a small set of
// primitives: get by id, filtered and ordered queries with start-after
// cursors, counts, insert with a generated id, keyed set, merge update, and
// delete. Documents are JSON objects grouped into named collections.
//
// Four backends implement Store: an in-memory store for tests and local
// development, a PostgreSQL JSONB table, a single-file SQLite database, and
// MongoDB.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrInvalidCursor is returned when a cursor cannot be decoded.
	ErrInvalidCursor = errors.New("docstore: invalid cursor")

	// ErrInvalidField is returned for field paths outside [A-Za-z0-9_.].
	ErrInvalidField = errors.New("docstore: invalid field path")
)

// TimeLayout is the on-disk timestamp format. All timestamps are stored UTC
// at second precision so lexical order equals chronological order.
const TimeLayout = time.RFC3339

// Timestamp normalizes t to the stored precision.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FormatTime renders t in the stored layout.
func FormatTime(t time.Time) string {
	return Timestamp(t).Format(TimeLayout)
}

// Op is a filter operator.
type Op string

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual Op = "=="
	// OpArrayContains matches documents whose array field contains the value.
	OpArrayContains Op = "array-contains"
)

// Filter is a single predicate on a document field. Field may be a dotted
// path into nested objects, e.g. "author.id".
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Direction is the sort direction of a query.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Query describes a filtered, ordered, paginated read. Filters are applied
// in sequence and all must match. Results are ordered by OrderBy and then by
// document id so that cursors are stable. A zero Limit means no limit.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
	StartAfter Cursor
}

// Where returns a copy of q with an additional filter.
func (q Query) Where(field string, op Op, value any) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, Where(field, op, value))
	return q
}

// Snapshot is a document read from the store.
type Snapshot struct {
	ID   string
	Data json.RawMessage
}

// DataTo decodes the document body into v.
func (s *Snapshot) DataTo(v any) error {
	if err := json.Unmarshal(s.Data, v); err != nil {
		return fmt.Errorf("decode document %s: %w", s.ID, err)
	}
	return nil
}

// Page is one page of query results. Next is empty when there are no
// further results.
type Page struct {
	Docs []*Snapshot
	Next Cursor
}

// Store is the capability the repositories depend on.
type Store interface {
	// Get returns a document by id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Snapshot, error)
	// Query runs a filtered, ordered, paginated read.
	Query(ctx context.Context, collection string, q Query) (Page, error)
	// Count returns the number of documents matching every filter.
	Count(ctx context.Context, collection string, filters ...Filter) (int, error)
	// Add inserts a document under a newly generated id and returns the id.
	Add(ctx context.Context, collection string, data any) (string, error)
	// Set creates or replaces the document stored under id.
	Set(ctx context.Context, collection, id string, data any) error
	// Merge overwrites the given top-level fields of an existing document,
	// leaving other fields untouched. Returns ErrNotFound if absent.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Close releases backend resources.
	Close() error
}

// serverTimestampMarker is what ServerTimestamp encodes to before the
// backend substitutes its own clock.
const serverTimestampMarker = "\x00docstore:server-timestamp"

type serverTimestamp struct{}

func (serverTimestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(serverTimestampMarker)
}

// ServerTimestamp may be used as a top-level field value in Add, Set, or
// Merge. The backend replaces it with its own clock at write time.
var ServerTimestamp = serverTimestamp{}

// encode converts data into a JSON object, resolving ServerTimestamp
// markers against now and dropping the "id" key, which is the document key
// rather than part of the body.
func encode(data any, now time.Time) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: not a JSON object: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	delete(doc, "id")
	stamp := FormatTime(now)
	for k, v := range doc {
		if s, ok := v.(string); ok && s == serverTimestampMarker {
			doc[k] = stamp
		}
	}
	return doc, nil
}

// normalize round-trips a Go value through JSON so it compares equal to
// values decoded from stored documents.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// validField reports whether a field path is safe to embed in a backend query.
func validField(field string) bool {
	if field == "" {
		return false
	}
	for _, r := range field {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return field[0] != '.' && field[len(field)-1] != '.'
}

func checkQuery(q Query) error {
	for _, f := range q.Filters {
		if !validField(f.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidField, f.Field)
		}
		if f.Op != OpEqual && f.Op != OpArrayContains {
			return fmt.Errorf("docstore: unsupported operator %q", f.Op)
		}
	}
	if q.OrderBy != "" && !validField(q.OrderBy) {
		return fmt.Errorf("%w: %q", ErrInvalidField, q.OrderBy)
	}
	if q.Limit < 0 {
		return fmt.Errorf("docstore: negative limit %d", q.Limit)
	}
	return nil
}
