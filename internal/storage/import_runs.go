package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/model"
)

// SaveImportRun records a committed import.
func (s *SQLiteStorage) SaveImportRun(ctx context.Context, run *model.ImportRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateImportRun(run); err != nil {
		return common.Permanent(err)
	}

	var completed any
	if !run.CompletedAt.IsZero() {
		completed = run.CompletedAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (
			id, tenant_id, user_id, source, fingerprint,
			total_rows, created_count, duplicate_count, invalid_count,
			started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.TenantID, run.UserID, run.Source, run.Fingerprint,
		run.TotalRows, run.CreatedCount, run.DuplicateCount, run.InvalidCount,
		run.StartedAt.UTC(), completed)
	if err != nil {
		return classify(err, "failed to save import run")
	}
	return nil
}

// GetImportRuns returns the tenant's most recent imports first.
func (s *SQLiteStorage) GetImportRuns(ctx context.Context, scope model.Scope, limit int) ([]model.ImportRun, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, source, fingerprint,
			total_rows, created_count, duplicate_count, invalid_count,
			started_at, completed_at
		FROM import_runs
		WHERE tenant_id = ?
		ORDER BY started_at DESC, id
		LIMIT ?
	`, scope.TenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.ImportRun
	for rows.Next() {
		var (
			run       model.ImportRun
			completed sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.TenantID, &run.UserID, &run.Source, &run.Fingerprint,
			&run.TotalRows, &run.CreatedCount, &run.DuplicateCount, &run.InvalidCount,
			&run.StartedAt, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		if completed.Valid {
			run.CompletedAt = completed.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
