// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// postgres.go stores documents as JSONB rows in a single "documents" table
// keyed by (collection, id). The schema is created by the goose migrations
// in internal/database.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostgresStore is a Store backed by PostgreSQL JSONB.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore wraps an open *sql.DB (pgx stdlib driver).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// pathParam renders a dotted field as a PostgreSQL text[] literal for #>.
// Field names are validated before reaching here.
func pathParam(field string) string {
	return "{" + strings.ReplaceAll(field, ".", ",") + "}"
}

// Get returns a document by id.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &Snapshot{ID: id, Data: data}, nil
}

// whereClause builds the filter SQL. $1 is always the collection name.
func whereClause(collection string, filters []Filter) (string, []any, error) {
	conds := []string{"collection = $1"}
	args := []any{collection}
	for _, f := range filters {
		var operand any = f.Value
		if f.Op == OpArrayContains {
			operand = []any{f.Value}
		}
		val, err := json.Marshal(operand)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		args = append(args, pathParam(f.Field), string(val))
		p, v := len(args)-1, len(args)
		switch f.Op {
		case OpEqual:
			conds = append(conds, fmt.Sprintf("data #> $%d::text[] = $%d::jsonb", p, v))
		case OpArrayContains:
			conds = append(conds, fmt.Sprintf("data #> $%d::text[] @> $%d::jsonb", p, v))
		}
	}
	return strings.Join(conds, " AND "), args, nil
}

// Query runs a filtered, ordered, paginated read.
func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) (Page, error) {
	if err := checkQuery(q); err != nil {
		return Page{}, err
	}

	where, args, err := whereClause(collection, q.Filters)
	if err != nil {
		return Page{}, err
	}

	dir, cmpOp := "ASC", ">"
	if q.Direction == Desc {
		dir, cmpOp = "DESC", "<"
	}

	// An empty OrderBy sorts by id alone; the key expression is then a
	// constant so the row comparison reduces to the id.
	keyExpr := "'null'::jsonb"
	if q.OrderBy != "" {
		args = append(args, pathParam(q.OrderBy))
		keyExpr = fmt.Sprintf("COALESCE(data #> $%d::text[], 'null'::jsonb)", len(args))
	}

	if q.StartAfter != "" {
		after, err := q.StartAfter.decode()
		if err != nil {
			return Page{}, err
		}
		val, err := json.Marshal(after.Value)
		if err != nil {
			return Page{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		args = append(args, string(val), after.ID)
		where += fmt.Sprintf(" AND (%s, id) %s ($%d::jsonb, $%d)", keyExpr, cmpOp, len(args)-1, len(args))
	}

	query := fmt.Sprintf(`SELECT id, data, %s FROM documents WHERE %s ORDER BY %s %s, id %s`,
		keyExpr, where, keyExpr, dir, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var (
		page Page
		keys []json.RawMessage
	)
	for rows.Next() {
		var (
			id        string
			data, key []byte
		)
		if err := rows.Scan(&id, &data, &key); err != nil {
			return Page{}, fmt.Errorf("scan document: %w", err)
		}
		page.Docs = append(page.Docs, &Snapshot{ID: id, Data: data})
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("query documents: %w", err)
	}

	if q.Limit > 0 && len(page.Docs) > q.Limit {
		page.Docs = page.Docs[:q.Limit]
		last := page.Docs[q.Limit-1]
		var key any
		if err := json.Unmarshal(keys[q.Limit-1], &key); err != nil {
			return Page{}, fmt.Errorf("decode order key: %w", err)
		}
		page.Next = newCursor(key, last.ID)
	}
	return page, nil
}

// Count returns the number of matching documents.
func (s *PostgresStore) Count(ctx context.Context, collection string, filters ...Filter) (int, error) {
	if err := checkQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}
	where, args, err := whereClause(collection, filters)
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// Add inserts a document under a generated UUID.
func (s *PostgresStore) Add(ctx context.Context, collection string, data any) (string, error) {
	doc, err := encode(data, s.now())
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(raw),
	)
	if err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

// Set creates or replaces a document.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, data any) error {
	doc, err := encode(data, s.now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		collection, id, string(raw),
	)
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

// Merge overwrites top-level fields of an existing document using jsonb ||.
func (s *PostgresStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := encode(fields, s.now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2`,
		collection, id, string(raw),
	)
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
