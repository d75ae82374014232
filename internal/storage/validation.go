// Package storage provides the data persistence layer for roster.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrInvalidEmployee     = errors.New("invalid employee")
	ErrInvalidBranch       = errors.New("invalid branch")
	ErrInvalidTemplate     = errors.New("invalid mapping template")
	ErrInvalidImportRun    = errors.New("invalid import run")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInMemoryDatabase    = errors.New("operation not supported on an in-memory database")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRequest(ctx context.Context, scope model.Scope) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return scope.Validate()
}

// validateEmployee checks the fields the schema requires.
func validateEmployee(scope model.Scope, emp *model.Employee) error {
	if emp == nil {
		return fmt.Errorf("%w: employee", ErrNilParameter)
	}
	if strings.TrimSpace(emp.FirstName) == "" {
		return fmt.Errorf("%w: missing first name", ErrInvalidEmployee)
	}
	if strings.TrimSpace(emp.LastName) == "" {
		return fmt.Errorf("%w: missing last name", ErrInvalidEmployee)
	}
	if !emp.Type.IsValid() {
		return fmt.Errorf("%w: unknown employee type %q", ErrInvalidEmployee, emp.Type)
	}
	if emp.TenantID != "" && emp.TenantID != scope.TenantID {
		return fmt.Errorf("%w: tenant %q does not match scope %q", ErrInvalidEmployee, emp.TenantID, scope.TenantID)
	}
	if emp.WeeklyHours != nil && emp.WeeklyHours.IsNegative() {
		return fmt.Errorf("%w: negative weekly hours", ErrInvalidEmployee)
	}
	return nil
}

func validateTemplate(tmpl *mapping.Template) error {
	if tmpl == nil {
		return fmt.Errorf("%w: template", ErrNilParameter)
	}
	if strings.TrimSpace(tmpl.Fingerprint) == "" {
		return fmt.Errorf("%w: missing fingerprint", ErrInvalidTemplate)
	}
	if err := mapping.Validate(tmpl.Mappings); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	return nil
}

func validateImportRun(run *model.ImportRun) error {
	if run == nil {
		return fmt.Errorf("%w: import run", ErrNilParameter)
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidImportRun)
	}
	if strings.TrimSpace(run.TenantID) == "" {
		return fmt.Errorf("%w: missing tenant", ErrInvalidImportRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidImportRun)
	}
	return nil
}
