// Package testutil provides shared fixtures for tests that need a database
// or an uploaded sheet.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/storage"
)

// DefaultScope is the tenant and user fixtures are created under.
var DefaultScope = model.Scope{TenantID: "tenant-test", UserID: "user-test"}

// TestDB represents a migrated in-memory database with seeded branches.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	Branches map[string]model.Branch
	t        *testing.T
	Scope    model.Scope
}

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	Scope       model.Scope
	Branches    []string
	Employees   []model.Employee
}

// SetupTestDB creates a migrated in-memory database under DefaultScope with
// the given branches. It is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.BranchTelAviv, testutil.BranchHaifa)
func SetupTestDB(t *testing.T, branches ...string) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Branches: branches})
}

// SetupTestDBWithOptions creates a test database with custom seed data.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	if opts.Scope.TenantID == "" {
		opts.Scope = DefaultScope
	}

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{
		Storage:  store,
		Branches: make(map[string]model.Branch, len(opts.Branches)),
		Scope:    opts.Scope,
		t:        t,
	}

	for _, name := range opts.Branches {
		b, err := store.CreateBranch(ctx, opts.Scope, name, "")
		if err != nil {
			t.Fatalf("failed to seed branch %q: %v", name, err)
		}
		db.Branches[name] = *b
	}

	if len(opts.Employees) > 0 {
		if _, err := store.CreateEmployees(ctx, opts.Scope, opts.Employees); err != nil {
			t.Fatalf("failed to seed employees: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// MustGetBranch returns the seeded branch with the given name or fails the test.
func (db *TestDB) MustGetBranch(name string) model.Branch {
	db.t.Helper()
	b, ok := db.Branches[name]
	if !ok {
		db.t.Fatalf("branch %q was not seeded", name)
	}
	return b
}

// CountEmployees returns the number of employees stored for the test scope.
func (db *TestDB) CountEmployees() int {
	db.t.Helper()
	n, err := db.Storage.CountEmployees(context.Background(), db.Scope)
	if err != nil {
		db.t.Fatalf("failed to count employees: %v", err)
	}
	return n
}
