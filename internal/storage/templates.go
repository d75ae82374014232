package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
)

// GetMappingTemplate returns the template remembered for a header fingerprint.
func (s *SQLiteStorage) GetMappingTemplate(ctx context.Context, scope model.Scope, fingerprint string) (*mapping.Template, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}
	if err := validateString(fingerprint, "fingerprint"); err != nil {
		return nil, err
	}

	var (
		tmpl         mapping.Template
		columnsJSON  string
		mappingsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, columns, mappings, use_count, updated_at
		FROM mapping_templates
		WHERE tenant_id = ? AND fingerprint = ?
	`, scope.TenantID, fingerprint).Scan(&tmpl.Fingerprint, &columnsJSON, &mappingsJSON, &tmpl.UseCount, &tmpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mapping template %s: %w", fingerprint, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping template: %w", err)
	}

	if err := json.Unmarshal([]byte(columnsJSON), &tmpl.Columns); err != nil {
		return nil, fmt.Errorf("%w: template columns: %w", common.ErrDatabaseCorrupted, err)
	}
	if err := json.Unmarshal([]byte(mappingsJSON), &tmpl.Mappings); err != nil {
		return nil, fmt.Errorf("%w: template mappings: %w", common.ErrDatabaseCorrupted, err)
	}
	return &tmpl, nil
}

// SaveMappingTemplate stores a template, replacing the mappings of an
// existing one with the same fingerprint and bumping its use count.
func (s *SQLiteStorage) SaveMappingTemplate(ctx context.Context, scope model.Scope, tmpl *mapping.Template) error {
	if err := validateRequest(ctx, scope); err != nil {
		return err
	}
	if err := validateTemplate(tmpl); err != nil {
		return common.Permanent(err)
	}

	columnsJSON, err := json.Marshal(tmpl.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode template columns: %w", err)
	}
	mappingsJSON, err := json.Marshal(tmpl.Mappings)
	if err != nil {
		return fmt.Errorf("failed to encode template mappings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mapping_templates (tenant_id, fingerprint, columns, mappings, use_count, updated_at)
		VALUES (?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (tenant_id, fingerprint) DO UPDATE SET
			columns = excluded.columns,
			mappings = excluded.mappings,
			use_count = mapping_templates.use_count + 1,
			updated_at = CURRENT_TIMESTAMP
	`, scope.TenantID, tmpl.Fingerprint, string(columnsJSON), string(mappingsJSON))
	if err != nil {
		return classify(err, "failed to save mapping template")
	}
	return nil
}
