package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ekervik/kontoklar/internal/cli"
	"github.com/ekervik/kontoklar/internal/config"
	"github.com/ekervik/kontoklar/internal/storage"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Most commands migrate automatically on startup; this one exists for
provisioning and for checking where a database stands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if status {
				version, err := store.SchemaVersion(ctx)
				if err != nil {
					return fmt.Errorf("failed to read schema version: %w", err)
				}
				fmt.Printf("Database: %s\n", cfg.DatabasePath)
				fmt.Printf("Schema version: %d (latest: %d)\n", version, storage.ExpectedSchemaVersion)
				if version == storage.ExpectedSchemaVersion {
					fmt.Println(cli.FormatSuccess("Schema is up to date."))
				} else {
					fmt.Println(cli.FormatWarning("Schema is behind. Run 'kontoklar migrate' to update."))
				}
				return nil
			}

			slog.Info("Running database migrations", "database", cfg.DatabasePath)
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Database migrations completed."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Show current migration status without applying changes")

	return cmd
}
