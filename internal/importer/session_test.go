package importer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/service"
	"github.com/Veraticus/roster/internal/testutil"
	"github.com/Veraticus/roster/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("backend unavailable")

// flakyStore fails the first N calls of selected operations and records the
// scopes it was called with.
type flakyStore struct {
	Store
	failures map[string]int
	calls    map[string]int
	scopes   []model.Scope
	mu       sync.Mutex
}

func newFlakyStore(inner Store) *flakyStore {
	return &flakyStore{
		Store:    inner,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (f *flakyStore) fail(op string, times int) { f.failures[op] = times }

func (f *flakyStore) before(op string, scope model.Scope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.scopes = append(f.scopes, scope)
	if f.failures[op] != 0 {
		if f.failures[op] > 0 {
			f.failures[op]--
		}
		return errUnavailable
	}
	return nil
}

func (f *flakyStore) GetBranches(ctx context.Context, scope model.Scope) ([]model.Branch, error) {
	if err := f.before("branches", scope); err != nil {
		return nil, err
	}
	return f.Store.GetBranches(ctx, scope)
}

func (f *flakyStore) GetEmployeeKeys(ctx context.Context, scope model.Scope) ([]model.NaturalKey, error) {
	if err := f.before("keys", scope); err != nil {
		return nil, err
	}
	return f.Store.GetEmployeeKeys(ctx, scope)
}

func (f *flakyStore) CreateEmployees(ctx context.Context, scope model.Scope, employees []model.Employee) (int, error) {
	if err := f.before("create", scope); err != nil {
		return 0, err
	}
	return f.Store.CreateEmployees(ctx, scope, employees)
}

func (f *flakyStore) GetMappingTemplate(ctx context.Context, scope model.Scope, fingerprint string) (*mapping.Template, error) {
	if err := f.before("template", scope); err != nil {
		return nil, err
	}
	return f.Store.GetMappingTemplate(ctx, scope, fingerprint)
}

func fastRetry() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func newTestSession(t *testing.T, store Store) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Retry = fastRetry()
	s, err := NewSession(store, testutil.DefaultScope, cfg)
	require.NoError(t, err)
	return s
}

func TestSession_FullWizard(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.BranchTelAviv, testutil.BranchHaifa)
	s := newTestSession(t, db.Storage)

	assert.Equal(t, StepUpload, s.Step())

	mappings, err := s.Upload(ctx, "staff.xlsx", testutil.HebrewStaffSheet().Build())
	require.NoError(t, err)
	assert.Equal(t, StepMap, s.Step())
	assert.False(t, s.FromTemplate())
	assert.Len(t, mappings, 9)
	assert.Empty(t, s.Unmapped())

	records, err := s.Preview(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, StepPreview, s.Step())

	dana := records[0]
	assert.True(t, dana.Committable(), dana.Errors)
	assert.Equal(t, "2023-03-15", dana.Fields[mapping.FieldHireDate])
	require.NotNil(t, dana.Employee.BranchID)
	assert.Equal(t, db.MustGetBranch(testutil.BranchTelAviv).ID, *dana.Employee.BranchID)

	avi := records[1]
	assert.Equal(t, model.EmployeeTypeTemporary, avi.Employee.Type)
	require.NotNil(t, avi.Employee.WeeklyHours)
	assert.Equal(t, "20.5", avi.Employee.WeeklyHours.String())

	assert.Equal(t, transform.Summary{Total: 3, Valid: 3, Committable: 3}, s.Summary())

	run, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepCommitted, s.Step())
	assert.Equal(t, 3, run.CreatedCount)
	assert.Equal(t, 3, run.TotalRows)
	assert.Equal(t, "staff.xlsx", run.Source)
	assert.Equal(t, testutil.DefaultScope.UserID, run.UserID)
	assert.Equal(t, 3, db.CountEmployees())

	runs, err := db.Storage.GetImportRuns(ctx, db.Scope, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	employees, err := db.Storage.GetEmployees(ctx, db.Scope, service.EmployeeFilter{})
	require.NoError(t, err)
	for _, e := range employees {
		assert.Equal(t, run.ID, e.ImportRunID)
		assert.Equal(t, db.Scope.TenantID, e.TenantID)
	}
}

func TestSession_ReusesTemplate(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	sheet := testutil.NewSheet("Col A", "Col B", "Mail").
		Row("Avi", "Levi", "avi@example.com").
		Build()

	first := newTestSession(t, db.Storage)
	_, err := first.Upload(ctx, "a.csv", sheet)
	require.NoError(t, err)
	// Nothing classifies "Col A" or "Col B"; the user maps them by hand.
	require.NoError(t, first.Assign("Col A", mapping.FieldFirstName))
	require.NoError(t, first.Assign("Col B", mapping.FieldLastName))
	_, err = first.Preview(ctx)
	require.NoError(t, err)
	_, err = first.Commit(ctx)
	require.NoError(t, err)

	second := newTestSession(t, db.Storage)
	reordered := testutil.NewSheet("Mail", "Col B", "Col A").
		Row("dana@example.com", "Cohen", "Dana").
		Build()
	mappings, err := second.Upload(ctx, "b.csv", reordered)
	require.NoError(t, err)
	assert.True(t, second.FromTemplate())
	assert.Len(t, mappings, 3)

	records, err := second.Preview(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Dana", records[0].Employee.FirstName)
	assert.Equal(t, "Cohen", records[0].Employee.LastName)
}

func TestSession_TemplatesDisabled(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	store := newFlakyStore(db.Storage)

	cfg := DefaultConfig()
	cfg.UseTemplates = false
	s, err := NewSession(store, db.Scope, cfg)
	require.NoError(t, err)

	_, err = s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("A", "B").Build())
	require.NoError(t, err)
	assert.Zero(t, store.calls["template"])
}

func TestSession_TemplateLookupFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	store := newFlakyStore(db.Storage)
	store.fail("template", -1)

	s := newTestSession(t, store)
	mappings, err := s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("A", "B").Build())
	require.NoError(t, err)
	assert.Len(t, mappings, 2)
	assert.False(t, s.FromTemplate())
	assert.Equal(t, 3, store.calls["template"])
}

func TestSession_ExistingEmployeeIsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Branches:  []string{testutil.BranchTelAviv, testutil.BranchHaifa},
		Employees: []model.Employee{testutil.Employee("Dana", "Old", "DANA@example.com")},
	})
	s := newTestSession(t, db.Storage)

	_, err := s.Upload(ctx, "staff.xlsx", testutil.HebrewStaffSheet().Build())
	require.NoError(t, err)
	records, err := s.Preview(ctx)
	require.NoError(t, err)

	assert.True(t, records[0].IsDuplicate)
	assert.True(t, records[0].IsValid())
	assert.False(t, records[0].Committable())

	run, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, run.CreatedCount)
	assert.Equal(t, 1, run.DuplicateCount)
	assert.Equal(t, 3, db.CountEmployees())
}

func TestSession_BadDateExcludesOnlyThatRow(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := newTestSession(t, db.Storage)

	sheet := testutil.NewSheet("שם פרטי", "שם משפחה", "תאריך תחילת עבודה").
		Row("דנה", "כהן", "not a date").
		Row("אבי", "לוי", "2022-01-31").
		Build()
	_, err := s.Upload(ctx, "staff.csv", sheet)
	require.NoError(t, err)

	records, err := s.Preview(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].IsValid())
	assert.Equal(t, transform.IssueRowCoercion, records[0].Issues[0].Kind)
	assert.True(t, records[1].Committable())

	run, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.CreatedCount)
	assert.Equal(t, 1, run.InvalidCount)
}

func TestSession_StepOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := newTestSession(t, db.Storage)

	assert.ErrorIs(t, s.SetMappings(nil), ErrStepOrder)
	assert.ErrorIs(t, s.Assign("x", mapping.FieldEmail), ErrStepOrder)
	_, err := s.Preview(ctx)
	assert.ErrorIs(t, err, ErrStepOrder)
	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, ErrStepOrder)

	_, err = s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("A", "B").Build())
	require.NoError(t, err)
	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, ErrStepOrder, "commit needs a preview")

	_, err = s.Preview(ctx)
	require.NoError(t, err)
	_, err = s.Commit(ctx)
	require.NoError(t, err)

	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
	_, err = s.Preview(ctx)
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
	_, err = s.Upload(ctx, "x.csv", testutil.NewSheet("First Name").Build())
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
	assert.Equal(t, 1, db.CountEmployees())
}

func TestSession_EditingMappingsDiscardsPreview(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := newTestSession(t, db.Storage)

	sheet := testutil.NewSheet("First Name", "Last Name", "Shirt").Row("Avi", "Levi", "M").Build()
	_, err := s.Upload(ctx, "x.csv", sheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shirt"}, s.Unmapped())

	_, err = s.Preview(ctx)
	require.NoError(t, err)

	require.NoError(t, s.AssignCustom("Shirt", "shirt size"))
	assert.Equal(t, StepMap, s.Step())
	assert.Nil(t, s.Records())
	assert.Empty(t, s.Unmapped())

	records, err := s.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"shirt size": "M"}, records[0].CustomFields)

	table := s.Table()
	assert.Contains(t, table.Header, "shirt size (custom)")
}

func TestSession_SetMappingsValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := newTestSession(t, db.Storage)

	_, err := s.Upload(ctx, "x.csv", testutil.NewSheet("Email", "Mail", "First Name").Row("a@x.io", "b@x.io", "A").Build())
	require.NoError(t, err)
	before := s.Mappings()

	tests := []struct {
		wantErr  error
		name     string
		mappings []mapping.Mapping
	}{
		{
			name: "duplicate target",
			mappings: []mapping.Mapping{
				mapping.NewMapping(mapping.FieldEmail, "Email"),
				mapping.NewMapping(mapping.FieldEmail, "Mail"),
			},
			wantErr: mapping.ErrDuplicateFieldMapping,
		},
		{
			name:     "no source columns",
			mappings: []mapping.Mapping{{ID: "m1", TargetField: mapping.FieldEmail}},
			wantErr:  mapping.ErrIncompleteMapping,
		},
		{
			name:     "column not in sheet",
			mappings: []mapping.Mapping{mapping.NewMapping(mapping.FieldEmail, "E-mail address")},
			wantErr:  ErrUnknownColumn,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetMappings(tt.mappings)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, s.Mappings(), "rejected mappings leave the working list alone")
		})
	}

	// Target-less rows are in progress and accepted.
	ok := append(before, mapping.Mapping{ID: "draft"})
	require.NoError(t, s.SetMappings(ok))
}

func TestSession_RetriesReferenceFetch(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.BranchHaifa)
	store := newFlakyStore(db.Storage)
	store.fail("branches", 2)
	store.fail("keys", 1)

	s := newTestSession(t, store)
	_, err := s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name", "Branch").Row("A", "B", "haifa").Build())
	require.NoError(t, err)

	records, err := s.Preview(ctx)
	require.NoError(t, err)
	assert.True(t, records[0].Committable())
	assert.Equal(t, 3, store.calls["branches"])
	assert.Equal(t, 2, store.calls["keys"])

	for _, scope := range store.scopes {
		assert.Equal(t, testutil.DefaultScope, scope)
	}
}

func TestSession_ReferenceFetchGivesUp(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	store := newFlakyStore(db.Storage)
	store.fail("branches", -1)

	s := newTestSession(t, store)
	_, err := s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("A", "B").Build())
	require.NoError(t, err)

	_, err = s.Preview(ctx)
	require.ErrorIs(t, err, common.ErrMaxRetries)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, StepMap, s.Step())
}

func TestSession_CommitRetries(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	store := newFlakyStore(db.Storage)
	store.fail("create", 1)

	s := newTestSession(t, store)
	_, err := s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("A", "B").Build())
	require.NoError(t, err)
	_, err = s.Preview(ctx)
	require.NoError(t, err)

	run, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.CreatedCount)
	assert.Equal(t, 2, store.calls["create"])
	assert.Equal(t, 1, db.CountEmployees())
}

func TestSession_CommitFailureKeepsPreview(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	store := newFlakyStore(db.Storage)
	store.fail("create", -1)

	s := newTestSession(t, store)
	_, err := s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("A", "B").Build())
	require.NoError(t, err)
	_, err = s.Preview(ctx)
	require.NoError(t, err)

	_, err = s.Commit(ctx)
	require.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, StepPreview, s.Step())
	assert.Nil(t, s.Run())
	assert.Zero(t, db.CountEmployees())

	// The step can be re-entered once the backend recovers.
	store.fail("create", 0)
	_, err = s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, db.CountEmployees())
}

func TestSession_PermanentFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	store := newFlakyStore(db.Storage)

	s := newTestSession(t, store)
	// Two rows with the same email inside one file are caught by the preview,
	// so force a storage-level conflict by inserting after the preview.
	_, err := s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name", "Email").Row("A", "B", "a@example.com").Build())
	require.NoError(t, err)
	_, err = s.Preview(ctx)
	require.NoError(t, err)

	_, err = db.Storage.CreateEmployees(ctx, db.Scope, []model.Employee{testutil.Employee("X", "Y", "a@example.com")})
	require.NoError(t, err)

	_, err = s.Commit(ctx)
	require.ErrorIs(t, err, common.ErrDuplicateEntry)
	assert.Equal(t, 1, store.calls["create"])
}

func TestSession_NothingToImport(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := newTestSession(t, db.Storage)

	_, err := s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("", "Levi").Build())
	require.NoError(t, err)
	records, err := s.Preview(ctx)
	require.NoError(t, err)
	assert.False(t, records[0].IsValid())

	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, common.ErrNothingToImport)
}

func TestSession_BeforeCommitAborts(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	hookErr := errors.New("disk full")
	cfg := DefaultConfig()
	cfg.Retry = fastRetry()
	cfg.BeforeCommit = func(context.Context) error { return hookErr }
	s, err := NewSession(db.Storage, db.Scope, cfg)
	require.NoError(t, err)

	_, err = s.Upload(ctx, "x.csv", testutil.NewSheet("First Name", "Last Name").Row("A", "B").Build())
	require.NoError(t, err)
	_, err = s.Preview(ctx)
	require.NoError(t, err)

	_, err = s.Commit(ctx)
	assert.ErrorIs(t, err, hookErr)
	assert.Zero(t, db.CountEmployees())
}

func TestSession_Progress(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.BranchTelAviv, testutil.BranchHaifa)

	var calls [][2]int
	cfg := DefaultConfig()
	cfg.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }
	s, err := NewSession(db.Storage, db.Scope, cfg)
	require.NoError(t, err)

	_, err = s.Upload(ctx, "staff.xlsx", testutil.HebrewStaffSheet().Build())
	require.NoError(t, err)
	_, err = s.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestSession_MaxRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.BranchTelAviv, testutil.BranchHaifa)

	cfg := DefaultConfig()
	cfg.MaxRows = 2
	s, err := NewSession(db.Storage, db.Scope, cfg)
	require.NoError(t, err)

	_, err = s.Upload(ctx, "staff.xlsx", testutil.HebrewStaffSheet().Build())
	require.NoError(t, err)
	assert.Len(t, s.Sheet().Rows, 2)
	assert.Contains(t, s.Sheet().Warnings, "only the first 2 of 3 rows were read")

	records, err := s.Preview(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestNewSession_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := NewSession(db.Storage, model.Scope{}, DefaultConfig())
	assert.ErrorIs(t, err, model.ErrMissingTenant)

	_, err = NewSession(nil, db.Scope, DefaultConfig())
	assert.Error(t, err)

	s, err := NewSession(db.Storage, db.Scope, DefaultConfig())
	require.NoError(t, err)
	_, err = s.Upload(context.Background(), "empty.csv", nil)
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "upload", StepUpload.String())
	assert.Equal(t, "committed", StepCommitted.String())
	assert.Equal(t, "step(9)", Step(9).String())
}
