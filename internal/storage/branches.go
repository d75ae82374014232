package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/model"
)

// CreateBranch adds a branch to the tenant. Names are unique per tenant,
// ignoring case and spacing.
func (s *SQLiteStorage) CreateBranch(ctx context.Context, scope model.Scope, name, address string) (*model.Branch, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidBranch)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (tenant_id, name, name_key, address)
		VALUES (?, ?, ?, ?)
	`, scope.TenantID, name, model.NormalizeBranchName(name), strings.TrimSpace(address))
	if err != nil {
		return nil, classify(err, "failed to create branch")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get branch ID: %w", err)
	}

	return s.getBranch(ctx, s.db, scope, "id = ?", id)
}

// GetBranches returns the tenant's active branches ordered by name.
func (s *SQLiteStorage) GetBranches(ctx context.Context, scope model.Scope) ([]model.Branch, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, address, is_active, created_at
		FROM branches
		WHERE tenant_id = ? AND is_active = 1
		ORDER BY name_key
	`, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var branches []model.Branch
	for rows.Next() {
		var b model.Branch
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// GetBranchByName finds a branch of the tenant by name, active or not.
func (s *SQLiteStorage) GetBranchByName(ctx context.Context, scope model.Scope, name string) (*model.Branch, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getBranch(ctx, s.db, scope, "name_key = ?", model.NormalizeBranchName(name))
}

// DeactivateBranch hides a branch from reference data. Employees keep their assignment.
func (s *SQLiteStorage) DeactivateBranch(ctx context.Context, scope model.Scope, id int64) error {
	if err := validateRequest(ctx, scope); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE branches SET is_active = 0 WHERE tenant_id = ? AND id = ?
	`, scope.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate branch: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("branch %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) getBranch(ctx context.Context, q queryable, scope model.Scope, where string, arg any) (*model.Branch, error) {
	var b model.Branch
	err := q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, address, is_active, created_at
		FROM branches
		WHERE tenant_id = ? AND `+where, scope.TenantID, arg).
		Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.IsActive, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("branch: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return &b, nil
}
