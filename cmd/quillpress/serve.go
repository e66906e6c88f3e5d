package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quillpress/internal/analytics"
	"quillpress/internal/handlers"
	"quillpress/internal/middleware"
	"quillpress/internal/router"
	"quillpress/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		invalidator := a.invalidator()

		agg := analytics.New(analytics.Sources{
			Posts:      a.posts,
			Categories: a.categories,
			Users:      a.admins,
			Activities: a.activities,
			Views:      a.views,
		})
		if a.stats != nil {
			agg.WithCache(a.stats)
		}

		sched := scheduler.New(a.categories, invalidator, slog.Default())
		if cfg.ReconcileSchedule != "" {
			if err := sched.Start(cfg.ReconcileSchedule); err != nil {
				return err
			}
			defer sched.Stop()
		} else {
			slog.Info("scheduled reconciliation disabled")
		}

		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer limiter.Stop()

		r := router.New(router.Deps{
			Posts:      handlers.NewPosts(a.posts, invalidator),
			Categories: handlers.NewCategories(a.categories, sched, invalidator),
			Users:      handlers.NewUsers(a.admins, invalidator),
			Dashboard:  handlers.NewDashboard(agg),
			Settings:   handlers.NewSettings(a.settings, a.activities),
			Roles:      a.admins,
			Recorder:   a.views,
			Limiter:    limiter,
		})

		srv := &http.Server{
			Addr:         cfg.Addr(),
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("server starting", "addr", cfg.Addr())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			slog.Info("shutdown signal received", "signal", sig)
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		slog.Info("server stopped gracefully")
		return nil
	},
}
