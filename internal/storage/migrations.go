package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS branches (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					tenant_id TEXT NOT NULL,
					name TEXT NOT NULL,
					name_key TEXT NOT NULL,
					address TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (tenant_id, name_key)
				)`,

				`CREATE TABLE IF NOT EXISTS employees (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					tenant_id TEXT NOT NULL,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL,
					email TEXT NOT NULL DEFAULT '',
					phone TEXT NOT NULL DEFAULT '',
					national_id TEXT NOT NULL DEFAULT '',
					email_key TEXT NOT NULL DEFAULT '',
					phone_key TEXT NOT NULL DEFAULT '',
					national_id_key TEXT NOT NULL DEFAULT '',
					employee_code TEXT NOT NULL DEFAULT '',
					address TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					hire_date TEXT,
					employee_type TEXT NOT NULL,
					weekly_hours TEXT,
					branch_id INTEGER REFERENCES branches(id),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_employees_tenant ON employees(tenant_id)`,
				`CREATE UNIQUE INDEX idx_employees_email ON employees(tenant_id, email_key) WHERE email_key <> ''`,
				`CREATE UNIQUE INDEX idx_employees_phone ON employees(tenant_id, phone_key) WHERE phone_key <> ''`,
				`CREATE UNIQUE INDEX idx_employees_national_id ON employees(tenant_id, national_id_key) WHERE national_id_key <> ''`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add employee custom fields",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS employee_custom_fields (
					employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					value TEXT NOT NULL,
					PRIMARY KEY (employee_id, name)
				)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add mapping templates and import runs",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS mapping_templates (
					tenant_id TEXT NOT NULL,
					fingerprint TEXT NOT NULL,
					columns TEXT NOT NULL,
					mappings TEXT NOT NULL,
					use_count INTEGER NOT NULL DEFAULT 1,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (tenant_id, fingerprint)
				)`,

				`CREATE TABLE IF NOT EXISTS import_runs (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					user_id TEXT NOT NULL DEFAULT '',
					source TEXT NOT NULL DEFAULT '',
					fingerprint TEXT NOT NULL DEFAULT '',
					total_rows INTEGER NOT NULL DEFAULT 0,
					created_count INTEGER NOT NULL DEFAULT 0,
					duplicate_count INTEGER NOT NULL DEFAULT 0,
					invalid_count INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME NOT NULL,
					completed_at DATETIME
				)`,
				`CREATE INDEX idx_import_runs_tenant ON import_runs(tenant_id, started_at)`,
				`ALTER TABLE employees ADD COLUMN import_run_id TEXT NOT NULL DEFAULT ''`,
			})
		},
	},
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
