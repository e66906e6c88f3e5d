// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler runs the periodic category postCount reconciliation.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"quillpress/internal/metrics"
)

// DefaultTimeout bounds a single reconciliation run.
const DefaultTimeout = 5 * time.Minute

// Reconciler recomputes denormalized counters and reports how many changed.
type Reconciler interface {
	ReconcilePostCounts(ctx context.Context) (int, error)
}

// Invalidator drops cached dashboard results.
type Invalidator interface {
	InvalidateAll(ctx context.Context)
}

// Scheduler runs reconciliation on a cron schedule.
type Scheduler struct {
	reconciler Reconciler
	cache      Invalidator
	cron       *cron.Cron
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a scheduler. cache may be nil.
func New(reconciler Reconciler, cache Invalidator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		cache:      cache,
		cron:       cron.New(),
		logger:     logger,
		timeout:    DefaultTimeout,
	}
}

// Start registers the job with a standard five-field cron spec or a
// descriptor such as "@every 1h", then starts the cron runner.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("postCount reconciliation failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", schedule, "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce performs one reconciliation. Cached dashboard results are dropped
// when any counter changed.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	changed, err := s.reconciler.ReconcilePostCounts(ctx)
	metrics.ObserveReconcile(changed, err)
	if err != nil {
		return 0, err
	}

	if changed > 0 {
		s.logger.Info("reconciled category post counts", "changed", changed)
		if s.cache != nil {
			s.cache.InvalidateAll(ctx)
		}
	} else {
		s.logger.Debug("category post counts already consistent")
	}
	return changed, nil
}
