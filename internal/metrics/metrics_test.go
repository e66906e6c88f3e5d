// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillpress/internal/docstore"
)

func TestObserveReconcile(t *testing.T) {
	success := testutil.ToFloat64(ReconcileRuns.WithLabelValues("success"))
	failed := testutil.ToFloat64(ReconcileRuns.WithLabelValues("error"))
	corrections := testutil.ToFloat64(ReconcileCorrections)

	ObserveReconcile(3, nil)
	ObserveReconcile(0, errors.New("boom"))

	assert.Equal(t, success+1, testutil.ToFloat64(ReconcileRuns.WithLabelValues("success")))
	assert.Equal(t, failed+1, testutil.ToFloat64(ReconcileRuns.WithLabelValues("error")))
	assert.Equal(t, corrections+3, testutil.ToFloat64(ReconcileCorrections))
}

func TestInstrumentedStoreCountsOperations(t *testing.T) {
	s := InstrumentStore(docstore.NewMemoryStore())
	ctx := context.Background()

	ok := func(op string) float64 {
		return testutil.ToFloat64(DocstoreOperations.WithLabelValues(op, "metrics_test", "ok"))
	}
	notFound := func(op string) float64 {
		return testutil.ToFloat64(DocstoreOperations.WithLabelValues(op, "metrics_test", "not_found"))
	}

	beforeSet, beforeGet, beforeMiss, beforeMergeMiss := ok("set"), ok("get"), notFound("get"), notFound("merge")

	require.NoError(t, s.Set(ctx, "metrics_test", "a", map[string]any{"n": 1}))
	_, err := s.Get(ctx, "metrics_test", "a")
	require.NoError(t, err)
	_, err = s.Get(ctx, "metrics_test", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	err = s.Merge(ctx, "metrics_test", "missing", map[string]any{"n": 2})
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	assert.Equal(t, beforeSet+1, ok("set"))
	assert.Equal(t, beforeGet+1, ok("get"))
	assert.Equal(t, beforeMiss+1, notFound("get"))
	assert.Equal(t, beforeMergeMiss+1, notFound("merge"))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DocstoreDuration), 1)
}

func TestInstrumentedStorePassesResultsThrough(t *testing.T) {
	s := InstrumentStore(docstore.NewMemoryStore())
	ctx := context.Background()

	id, err := s.Add(ctx, "metrics_test", map[string]any{"tag": "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	n, err := s.Count(ctx, "metrics_test", docstore.Where("tag", docstore.OpEqual, "x"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	page, err := s.Query(ctx, "metrics_test", docstore.Query{})
	require.NoError(t, err)
	assert.Len(t, page.Docs, 1)

	require.NoError(t, s.Delete(ctx, "metrics_test", id))
	require.NoError(t, s.Close())
}
