// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// mongo.go maps each document collection onto a MongoDB collection. The
// document id is stored as a string _id; bodies round-trip through relaxed
// extended JSON so they decode into the same shapes as the other backends.

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore is a Store backed by MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// ConnectMongo opens a MongoDB client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoStore{client: client, db: client.Database(database), now: time.Now}, nil
}

// toBSON converts an encoded document into a BSON document.
func toBSON(doc map[string]any) (bson.D, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &out); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	return out, nil
}

// fromBSON converts a raw BSON document into a Snapshot, dropping _id.
func fromBSON(raw bson.Raw) (*Snapshot, error) {
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(ext, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	id, _ := doc["_id"].(string)
	delete(doc, "_id")
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return &Snapshot{ID: id, Data: data}, nil
}

func mongoFilter(filters []Filter) bson.D {
	filter := bson.D{}
	for _, f := range filters {
		// Equality on an array field in MongoDB already means membership,
		// so both operators translate to a plain field match.
		filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
	}
	return filter
}

// Get returns a document by id.
func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Snapshot, error) {
	raw, err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return fromBSON(raw)
}

// Query runs a filtered, ordered, paginated read.
func (s *MongoStore) Query(ctx context.Context, collection string, q Query) (Page, error) {
	if err := checkQuery(q); err != nil {
		return Page{}, err
	}

	filter := mongoFilter(q.Filters)
	dir := 1
	if q.Direction == Desc {
		dir = -1
	}

	if q.StartAfter != "" {
		after, err := q.StartAfter.decode()
		if err != nil {
			return Page{}, err
		}
		cmpOp := "$gt"
		if q.Direction == Desc {
			cmpOp = "$lt"
		}
		var next bson.A
		if q.OrderBy == "" {
			next = bson.A{bson.D{{Key: "_id", Value: bson.D{{Key: cmpOp, Value: after.ID}}}}}
		} else {
			next = bson.A{
				bson.D{{Key: q.OrderBy, Value: bson.D{{Key: cmpOp, Value: after.Value}}}},
				bson.D{
					{Key: q.OrderBy, Value: after.Value},
					{Key: "_id", Value: bson.D{{Key: cmpOp, Value: after.ID}}},
				},
			}
		}
		filter = append(filter, bson.E{Key: "$or", Value: next})
	}

	sort := bson.D{}
	if q.OrderBy != "" {
		sort = append(sort, bson.E{Key: q.OrderBy, Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: dir})

	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit + 1))
	}

	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return Page{}, fmt.Errorf("query documents: %w", err)
	}
	defer cur.Close(ctx)

	var page Page
	for cur.Next(ctx) {
		snap, err := fromBSON(cur.Current)
		if err != nil {
			return Page{}, err
		}
		page.Docs = append(page.Docs, snap)
	}
	if err := cur.Err(); err != nil {
		return Page{}, fmt.Errorf("query documents: %w", err)
	}

	if q.Limit > 0 && len(page.Docs) > q.Limit {
		page.Docs = page.Docs[:q.Limit]
		last := page.Docs[q.Limit-1]
		var key any
		if q.OrderBy != "" {
			var doc map[string]any
			if err := json.Unmarshal(last.Data, &doc); err != nil {
				return Page{}, fmt.Errorf("decode order key: %w", err)
			}
			key, _ = lookup(doc, q.OrderBy)
		}
		page.Next = newCursor(key, last.ID)
	}
	return page, nil
}

// Count returns the number of matching documents.
func (s *MongoStore) Count(ctx context.Context, collection string, filters ...Filter) (int, error) {
	if err := checkQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}
	n, err := s.db.Collection(collection).CountDocuments(ctx, mongoFilter(filters))
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return int(n), nil
}

// Add inserts a document under a generated UUID.
func (s *MongoStore) Add(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()
	doc, err := encode(data, s.now())
	if err != nil {
		return "", err
	}
	body, err := toBSON(doc)
	if err != nil {
		return "", err
	}
	body = append(bson.D{{Key: "_id", Value: id}}, body...)
	if _, err := s.db.Collection(collection).InsertOne(ctx, body); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

// Set creates or replaces a document.
func (s *MongoStore) Set(ctx context.Context, collection, id string, data any) error {
	doc, err := encode(data, s.now())
	if err != nil {
		return err
	}
	body, err := toBSON(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: id}}, body,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

// Merge overwrites top-level fields with $set.
func (s *MongoStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := encode(fields, s.now())
	if err != nil {
		return err
	}
	set, err := toBSON(patch)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return fmt.Errorf("merge document: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document.
func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
