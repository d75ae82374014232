// Package importer drives the spreadsheet import wizard: upload, map,
// preview and commit. Every collaborator call carries the session's tenant
// scope and runs under one retry policy.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/service"
	"github.com/Veraticus/roster/internal/spreadsheet"
	"github.com/Veraticus/roster/internal/transform"
	"github.com/google/uuid"
)

// Step is the position of a session in the wizard.
type Step int

// Wizard steps in order.
const (
	StepUpload Step = iota
	StepMap
	StepPreview
	StepCommitted
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepMap:
		return "map"
	case StepPreview:
		return "preview"
	case StepCommitted:
		return "committed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Session errors.
var (
	ErrStepOrder        = errors.New("import step is not available yet")
	ErrAlreadyCommitted = errors.New("import has already been committed")
	ErrNoColumns        = errors.New("sheet has no columns")
	ErrUnknownColumn    = errors.New("mapping refers to a column that is not in the sheet")
)

// Store is everything the wizard needs from persistence.
type Store interface {
	service.ReferenceFetcher
	service.EmployeeWriter
	service.TemplateStore
	service.ImportRunStore
}

// ProgressFunc is called after each transformed row.
type ProgressFunc func(done, total int)

// Config holds the settings of an import session.
type Config struct {
	Classifier *mapping.Classifier
	Logger     *slog.Logger
	Progress   ProgressFunc
	// BeforeCommit runs once before employees are written, e.g. to snapshot the database.
	BeforeCommit func(ctx context.Context) error
	Now          func() time.Time
	Transform    transform.Options
	Retry        service.RetryOptions
	// UseTemplates looks up and saves mapping templates by header fingerprint.
	UseTemplates bool
	// MaxRows limits the data rows taken from an uploaded sheet. Zero keeps all.
	MaxRows int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Transform:    transform.DefaultOptions(),
		Retry:        service.DefaultRetryOptions(),
		UseTemplates: true,
	}
}

// Session holds the wizard state of one import. It is not safe for concurrent use.
type Session struct {
	store    Store
	log      *slog.Logger
	sheet    *spreadsheet.Sheet
	source   string
	scope    model.Scope
	cfg      Config
	mappings []mapping.Mapping
	records  []transform.PreviewRecord
	run      *model.ImportRun
	step     Step
	template bool
}

// NewSession starts an import for the tenant of scope.
func NewSession(store Store, scope model.Scope, cfg Config) (*Session, error) {
	if store == nil {
		return nil, errors.New("importer: store is required")
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if cfg.Classifier == nil {
		cfg.Classifier = mapping.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Transform.TenantID = scope.TenantID

	return &Session{
		store: store,
		scope: scope,
		cfg:   cfg,
		log:   cfg.Logger.With("tenant", scope.TenantID),
	}, nil
}

// Step returns the current wizard step.
func (s *Session) Step() Step { return s.step }

// Scope returns the tenant scope of the session.
func (s *Session) Scope() model.Scope { return s.scope }

// Sheet returns the uploaded sheet, or nil before Upload.
func (s *Session) Sheet() *spreadsheet.Sheet { return s.sheet }

// FromTemplate reports whether the current mappings came from a saved template.
func (s *Session) FromTemplate() bool { return s.template }

// Columns returns the uploaded sheet's headers in order.
func (s *Session) Columns() []string {
	if s.sheet == nil {
		return nil
	}
	return append([]string{}, s.sheet.Columns...)
}

// Mappings returns a copy of the working mapping list.
func (s *Session) Mappings() []mapping.Mapping {
	out := make([]mapping.Mapping, len(s.mappings))
	for i, m := range s.mappings {
		out[i] = m.Clone()
	}
	return out
}

// Unmapped returns the sheet columns no mapping uses.
func (s *Session) Unmapped() []string {
	if s.sheet == nil {
		return nil
	}
	return mapping.Unmapped(s.sheet.Columns, s.mappings)
}

// Records returns the preview records of the last Preview.
func (s *Session) Records() []transform.PreviewRecord { return s.records }

// Summary counts the preview records of the last Preview.
func (s *Session) Summary() transform.Summary { return transform.Summarize(s.records) }

// Table returns the preview grid of the last Preview.
func (s *Session) Table() transform.Table {
	return transform.PreviewTable(s.mappings, s.records)
}

// Run returns the import run recorded by Commit.
func (s *Session) Run() *model.ImportRun { return s.run }

// Upload starts the wizard over with a parsed sheet and proposes mappings,
// either from a template saved for the same header set or by classifying
// the headers.
func (s *Session) Upload(ctx context.Context, source string, sheet *spreadsheet.Sheet) ([]mapping.Mapping, error) {
	if s.step == StepCommitted {
		return nil, ErrAlreadyCommitted
	}
	if sheet == nil || len(sheet.Columns) == 0 {
		return nil, ErrNoColumns
	}

	sheet.Limit(s.cfg.MaxRows)
	s.sheet = sheet
	s.source = source
	s.records = nil
	s.template = false
	s.mappings = nil

	if tmpl := s.lookupTemplate(ctx, sheet.Columns); tmpl != nil {
		s.mappings = tmpl.Instantiate()
		s.template = true
		s.log.Info("Using saved mapping template",
			"fingerprint", tmpl.Fingerprint,
			"use_count", tmpl.UseCount)
	} else {
		s.mappings = s.cfg.Classifier.Aggregate(sheet.Columns)
	}

	s.step = StepMap
	s.log.Info("Sheet uploaded",
		"source", source,
		"columns", len(sheet.Columns),
		"rows", len(sheet.Rows),
		"mapped_fields", len(s.mappings),
		"unmapped_columns", len(s.Unmapped()))

	return s.Mappings(), nil
}

// lookupTemplate returns nil when templates are disabled, none is saved or
// the lookup keeps failing. A failed lookup only costs auto-detection.
func (s *Session) lookupTemplate(ctx context.Context, columns []string) *mapping.Template {
	if !s.cfg.UseTemplates {
		return nil
	}

	fingerprint := mapping.Fingerprint(columns)
	var tmpl *mapping.Template
	err := s.retry(ctx, func() error {
		t, err := s.store.GetMappingTemplate(ctx, s.scope, fingerprint)
		if errors.Is(err, common.ErrNotFound) {
			return common.Permanent(err)
		}
		tmpl = t
		return err
	})
	switch {
	case errors.Is(err, common.ErrNotFound):
		return nil
	case err != nil:
		s.log.Warn("Mapping template lookup failed, detecting columns instead", "error", err)
		return nil
	case tmpl == nil || !tmpl.Applies(columns):
		return nil
	}
	return tmpl
}

// SetMappings replaces the working mapping list after validating it. A
// previous preview is discarded.
func (s *Session) SetMappings(mappings []mapping.Mapping) error {
	if err := s.editable(); err != nil {
		return err
	}
	if err := mapping.Validate(mappings); err != nil {
		return err
	}
	if err := s.checkColumns(mappings); err != nil {
		return err
	}

	s.mappings = make([]mapping.Mapping, len(mappings))
	for i, m := range mappings {
		s.mappings[i] = m.Clone()
	}
	s.resetPreview()
	return nil
}

// Assign moves a column to a target field. An empty field unmaps the column.
func (s *Session) Assign(column string, field mapping.FieldID) error {
	if err := s.editable(); err != nil {
		return err
	}
	if err := s.checkColumns([]mapping.Mapping{{SourceColumns: []string{column}}}); err != nil {
		return err
	}
	s.mappings = mapping.Assign(s.mappings, column, field)
	s.resetPreview()
	return nil
}

// AssignCustom designates a column as a custom field.
func (s *Session) AssignCustom(column, name string) error {
	if err := s.editable(); err != nil {
		return err
	}
	if err := s.checkColumns([]mapping.Mapping{{SourceColumns: []string{column}}}); err != nil {
		return err
	}
	s.mappings = mapping.AssignCustom(s.mappings, column, name)
	s.resetPreview()
	return nil
}

func (s *Session) editable() error {
	switch s.step {
	case StepUpload:
		return fmt.Errorf("%w: upload a sheet first", ErrStepOrder)
	case StepCommitted:
		return ErrAlreadyCommitted
	}
	return nil
}

func (s *Session) resetPreview() {
	s.records = nil
	s.step = StepMap
}

func (s *Session) checkColumns(mappings []mapping.Mapping) error {
	known := make(map[string]bool, len(s.sheet.Columns))
	for _, c := range s.sheet.Columns {
		known[c] = true
	}
	for _, m := range mappings {
		for _, c := range m.SourceColumns {
			if !known[c] {
				return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
			}
		}
	}
	return nil
}

// Preview fetches the tenant's reference data and transforms every row.
// It can be called again to pick up changed mappings or reference data.
func (s *Session) Preview(ctx context.Context) ([]transform.PreviewRecord, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}

	t, err := s.transformer(ctx)
	if err != nil {
		return nil, err
	}

	rows := s.sheet.Rows
	records := make([]transform.PreviewRecord, 0, len(rows))
	for i, row := range rows {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		records = append(records, t.Transform(i+1, row))
		if s.cfg.Progress != nil {
			s.cfg.Progress(i+1, len(rows))
		}
	}
	transform.MarkBatchDuplicates(records)

	s.records = records
	s.step = StepPreview

	summary := transform.Summarize(records)
	s.log.Info("Preview ready",
		"rows", summary.Total,
		"valid", summary.Valid,
		"invalid", summary.Invalid,
		"duplicates", summary.Duplicates,
		"committable", summary.Committable)

	return records, nil
}

func (s *Session) transformer(ctx context.Context) (*transform.Transformer, error) {
	if err := mapping.Validate(s.mappings); err != nil {
		return nil, err
	}

	var branches []model.Branch
	if err := s.retry(ctx, func() error {
		var err error
		branches, err = s.store.GetBranches(ctx, s.scope)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to load branches: %w", err)
	}

	var keys []model.NaturalKey
	if err := s.retry(ctx, func() error {
		var err error
		keys, err = s.store.GetEmployeeKeys(ctx, s.scope)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to load existing employees: %w", err)
	}

	s.log.Debug("Loaded reference data", "branches", len(branches), "employees", len(keys))
	return transform.New(s.mappings, transform.NewReferenceData(branches, keys), s.cfg.Transform)
}

// Commit persists the valid, non-duplicate records of the current preview in
// one write and records the import run. It can only succeed once.
func (s *Session) Commit(ctx context.Context) (*model.ImportRun, error) {
	switch s.step {
	case StepCommitted:
		return nil, ErrAlreadyCommitted
	case StepPreview:
	default:
		return nil, fmt.Errorf("%w: preview the import before committing", ErrStepOrder)
	}

	employees := transform.Committable(s.records)
	if len(employees) == 0 {
		return nil, common.ErrNothingToImport
	}

	summary := transform.Summarize(s.records)
	run := &model.ImportRun{
		ID:             uuid.NewString(),
		TenantID:       s.scope.TenantID,
		UserID:         s.scope.UserID,
		Source:         s.source,
		Fingerprint:    mapping.Fingerprint(s.sheet.Columns),
		TotalRows:      summary.Total,
		DuplicateCount: summary.Duplicates,
		InvalidCount:   summary.Invalid,
		StartedAt:      s.cfg.Now(),
	}
	for i := range employees {
		employees[i].TenantID = s.scope.TenantID
		employees[i].ImportRunID = run.ID
	}

	if s.cfg.BeforeCommit != nil {
		if err := s.cfg.BeforeCommit(ctx); err != nil {
			return nil, fmt.Errorf("pre-commit hook failed: %w", err)
		}
	}

	var created int
	if err := s.retry(ctx, func() error {
		var err error
		created, err = s.store.CreateEmployees(ctx, s.scope, employees)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to save employees: %w", err)
	}

	run.CreatedCount = created
	run.CompletedAt = s.cfg.Now()
	s.run = run
	s.step = StepCommitted

	s.log.Info("Import committed",
		"run_id", run.ID,
		"created", created,
		"duplicates", run.DuplicateCount,
		"invalid", run.InvalidCount)

	// Employees are already stored; bookkeeping failures are reported but do
	// not undo the import.
	if err := s.retry(ctx, func() error { return s.store.SaveImportRun(ctx, run) }); err != nil {
		s.log.Error("Failed to record import run", "run_id", run.ID, "error", err)
	}
	if s.cfg.UseTemplates {
		tmpl := mapping.NewTemplate(s.sheet.Columns, s.mappings)
		if err := s.retry(ctx, func() error { return s.store.SaveMappingTemplate(ctx, s.scope, &tmpl) }); err != nil {
			s.log.Warn("Failed to save mapping template", "error", err)
		}
	}

	return run, nil
}

func (s *Session) retry(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, op, s.cfg.Retry)
}
