package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"quillpress/internal/database"
	"quillpress/internal/docstore"
	"quillpress/internal/scheduler"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations for the postgres or sqlite driver",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openSQL(cfg)
		if err != nil {
			return err
		}
		if db == nil {
			fmt.Printf("Driver %q has no schema to migrate\n", cfg.DocstoreDriver)
			return nil
		}
		defer db.Close()

		version := database.Version
		if cfg.DocstoreDriver == docstore.DriverSQLite {
			version = database.SQLiteVersion
		}
		v, err := version(db)
		if err != nil {
			return err
		}
		fmt.Printf("Schema at version %d\n", v)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute every category postCount from post membership",
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

		changed, err := scheduler.New(a.categories, a.invalidator(), slog.Default()).RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("reconcile post counts: %w", err)
		}
		fmt.Printf("Corrected %d categories\n", changed)
		return nil
	},
}

var bootstrapAdminName string

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin <user-id>",
	Short: "Grant the admin role to an external user id",
	Long: "Creates an admin record for the given user id unless a record already exists. " +
		"Later role changes go through the API.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := strings.TrimSpace(args[0])
		if userID == "" {
			return fmt.Errorf("user id must not be empty")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.admins.CreateInitialAdmin(cmd.Context(), userID, bootstrapAdminName); err != nil {
			return fmt.Errorf("create initial admin: %w", err)
		}
		fmt.Printf("Admin record ensured for %s\n", userID)
		return nil
	},
}

func init() {
	bootstrapAdminCmd.Flags().StringVar(&bootstrapAdminName, "name", "", "display name for the admin record")
}
