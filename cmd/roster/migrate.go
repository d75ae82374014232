package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/roster/internal/cli"
	"github.com/Veraticus/roster/internal/config"
	"github.com/Veraticus/roster/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Other commands migrate automatically; this is useful to prepare a database
ahead of time or to check its schema version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the schema version without applying changes")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.DatabasePath()
	out := cmd.OutOrStdout()

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	before, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		say(out, fmt.Sprintf("Database:       %s", dbPath))
		say(out, fmt.Sprintf("Schema version: %d of %d", before, storage.ExpectedSchemaVersion))
		return nil
	}

	slog.Info("Running database migrations", "database", dbPath, "from_version", before)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	after, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if after == before {
		say(out, cli.FormatInfo(fmt.Sprintf("Database is up to date (version %d)", after)))
		return nil
	}
	say(out, cli.FormatSuccess(fmt.Sprintf("Migrated database from version %d to %d", before, after)))
	return nil
}
