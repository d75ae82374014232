package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/roster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointManager_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.CreateBranch(ctx, testScope, "Haifa", "")
	require.NoError(t, err)
	_, err = store.CreateEmployees(ctx, testScope, []model.Employee{testEmployee("Avi", "Levi", "")})
	require.NoError(t, err)

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	info, err := cm.Create(ctx, "before-import", "manual snapshot")
	require.NoError(t, err)
	assert.Equal(t, "before-import", info.ID)
	assert.Equal(t, 1, info.Employees())
	assert.Equal(t, 1, info.Branches())
	assert.Equal(t, 0, info.ImportRuns())
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.Positive(t, info.FileSize)
	assert.False(t, info.IsAuto)

	_, err = cm.Create(ctx, "before-import", "")
	assert.ErrorIs(t, err, ErrCheckpointExists)

	list, err := cm.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "manual snapshot", list[0].Description)

	got, err := cm.Get(ctx, "before-import")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Employees())

	require.NoError(t, cm.Delete(ctx, "before-import"))
	assert.ErrorIs(t, cm.Delete(ctx, "before-import"), ErrCheckpointNotFound)
	_, err = cm.Get(ctx, "before-import")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestCheckpointManager_InvalidIDs(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	for _, id := range []string{"../escape", "a/b", `a\b`} {
		_, err := cm.Create(ctx, id, "")
		assert.ErrorIs(t, err, ErrInvalidCheckpointID, id)
		assert.ErrorIs(t, cm.Restore(ctx, id), ErrInvalidCheckpointID, id)
		assert.ErrorIs(t, cm.Delete(ctx, id), ErrInvalidCheckpointID, id)
	}
}

func TestCheckpointManager_Restore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "roster.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	_, err = store.CreateEmployees(ctx, testScope, []model.Employee{testEmployee("Avi", "Levi", "avi@example.com")})
	require.NoError(t, err)

	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)
	_, err = cm.Create(ctx, "one-employee", "")
	require.NoError(t, err)

	_, err = store.CreateEmployees(ctx, testScope, []model.Employee{testEmployee("Dana", "Cohen", "dana@example.com")})
	require.NoError(t, err)

	// Restore closes the handle.
	require.NoError(t, cm.Restore(ctx, "one-employee"))

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	count, err := reopened.CountEmployees(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = os.Stat(dbPath + ".restore-backup")
	assert.True(t, os.IsNotExist(err))
}

func TestCheckpointManager_RestoreMissing(t *testing.T) {
	store := createTestStorage(t)
	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	assert.ErrorIs(t, cm.Restore(context.Background(), "nope"), ErrCheckpointNotFound)
}

func TestCheckpointManager_AutoCheckpointPrunes(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	cm, err := store.NewCheckpointManager()
	require.NoError(t, err)

	for i := 0; i < MaxAutoCheckpoints+2; i++ {
		// Distinct prefixes keep tags unique within the same second.
		info, err := cm.AutoCheckpoint(ctx, "import"+string(rune('a'+i)))
		require.NoError(t, err)
		assert.True(t, info.IsAuto)
	}
	_, err = cm.Create(ctx, "manual", "")
	require.NoError(t, err)

	list, err := cm.List(ctx)
	require.NoError(t, err)

	auto := 0
	for _, cp := range list {
		if cp.IsAuto {
			auto++
		}
	}
	assert.Equal(t, MaxAutoCheckpoints, auto)
	assert.Len(t, list, MaxAutoCheckpoints+1)
}
