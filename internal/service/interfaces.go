// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
)

// EmployeeFilter defines filtering options for employee queries.
type EmployeeFilter struct {
	BranchID *int64
	Type     model.EmployeeType
	Search   string
	Limit    int
	Offset   int
}

// ReferenceFetcher loads the tenant data rows are validated against.
type ReferenceFetcher interface {
	GetBranches(ctx context.Context, scope model.Scope) ([]model.Branch, error)
	GetEmployeeKeys(ctx context.Context, scope model.Scope) ([]model.NaturalKey, error)
}

// EmployeeWriter persists imported employees.
type EmployeeWriter interface {
	// CreateEmployees inserts employees in one transaction and returns how
	// many were created. Either all are created or none.
	CreateEmployees(ctx context.Context, scope model.Scope, employees []model.Employee) (int, error)
}

// TemplateStore remembers confirmed mappings per header fingerprint.
type TemplateStore interface {
	GetMappingTemplate(ctx context.Context, scope model.Scope, fingerprint string) (*mapping.Template, error)
	SaveMappingTemplate(ctx context.Context, scope model.Scope, template *mapping.Template) error
}

// ImportRunStore records committed imports.
type ImportRunStore interface {
	SaveImportRun(ctx context.Context, run *model.ImportRun) error
	GetImportRuns(ctx context.Context, scope model.Scope, limit int) ([]model.ImportRun, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	ReferenceFetcher
	EmployeeWriter
	TemplateStore
	ImportRunStore

	// Branch operations
	CreateBranch(ctx context.Context, scope model.Scope, name, address string) (*model.Branch, error)
	GetBranchByName(ctx context.Context, scope model.Scope, name string) (*model.Branch, error)
	DeactivateBranch(ctx context.Context, scope model.Scope, id int64) error

	// Employee operations
	GetEmployees(ctx context.Context, scope model.Scope, filter EmployeeFilter) ([]model.Employee, error)
	GetEmployeeByID(ctx context.Context, scope model.Scope, id int64) (*model.Employee, error)
	CountEmployees(ctx context.Context, scope model.Scope) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions returns the retry policy used for collaborator calls.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}
