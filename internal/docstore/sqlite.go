// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// sqlite.go stores documents as JSON text in a single-file SQLite database
// for single-node installs. String equality filters narrow the scan in SQL;
// ordering, cursors and the remaining filters run in process with the same
// comparison rules as MemoryStore.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore is a Store backed by SQLite JSON text.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps an open, migrated *sql.DB (modernc sqlite driver).
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// jsonPath renders a dotted field as a SQLite JSON path.
func jsonPath(field string) string {
	return "$." + field
}

// Get returns a document by id.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &Snapshot{ID: id, Data: []byte(data)}, nil
}

// load reads the collection, narrowed by any string equality filters, and
// applies every filter to the decoded documents.
func (s *SQLiteStore) load(ctx context.Context, collection string, filters []Filter) ([]entry, error) {
	normalized, err := normalizeFilters(filters)
	if err != nil {
		return nil, err
	}

	conds := []string{"collection = ?"}
	args := []any{collection}
	for _, f := range normalized {
		if str, ok := f.Value.(string); ok && f.Op == OpEqual {
			conds = append(conds, "json_extract(data, ?) = ?")
			args = append(args, jsonPath(f.Field), str)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE `+strings.Join(conds, " AND "), args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		if matches(doc, normalized) {
			entries = append(entries, entry{id: id, doc: doc})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return entries, nil
}

// Query runs a filtered, ordered, paginated read.
func (s *SQLiteStore) Query(ctx context.Context, collection string, q Query) (Page, error) {
	if err := checkQuery(q); err != nil {
		return Page{}, err
	}
	entries, err := s.load(ctx, collection, q.Filters)
	if err != nil {
		return Page{}, err
	}
	return paginate(entries, q)
}

// Count returns the number of matching documents.
func (s *SQLiteStore) Count(ctx context.Context, collection string, filters ...Filter) (int, error) {
	if err := checkQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		var n int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("count documents: %w", err)
		}
		return n, nil
	}
	entries, err := s.load(ctx, collection, filters)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Add inserts a document under a generated UUID.
func (s *SQLiteStore) Add(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces a document.
func (s *SQLiteStore) Set(ctx context.Context, collection, id string, data any) error {
	if id == "" {
		return fmt.Errorf("docstore: empty id")
	}
	doc, err := encode(data, s.now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = excluded.data, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		collection, id, string(raw),
	)
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

// Merge overwrites top-level fields of an existing document. The read and
// write share a transaction so concurrent merges do not lose fields.
func (s *SQLiteStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := encode(fields, s.now())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return fmt.Errorf("decode document %s: %w", id, err)
	}
	if doc == nil {
		doc = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET data = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE collection = ? AND id = ?`,
		string(raw), collection, id,
	)
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("merge document: %w", err)
	}
	return nil
}

// Delete removes a document.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
