// Package main is the entry point for the Quillpress server and its
// maintenance commands. serve runs the JSON API; migrate, reconcile and
// bootstrap-admin are one-shot operations against the configured store.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"quillpress/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "quillpress",
	Short:        "Content repository and analytics API",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd, bootstrapAdminCmd)
}

// loadConfig loads configuration and installs the default logger. The
// logger outputs JSON in production and text in development.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"docstore", cfg.DocstoreDriver,
	)
	return cfg, nil
}
