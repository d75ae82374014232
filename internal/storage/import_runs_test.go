package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRuns_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := &model.ImportRun{
			ID:             id,
			TenantID:       testScope.TenantID,
			UserID:         testScope.UserID,
			Source:         "staff.xlsx",
			Fingerprint:    "fp",
			TotalRows:      10,
			CreatedCount:   7,
			DuplicateCount: 2,
			InvalidCount:   1,
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			CompletedAt:    base.Add(time.Duration(i)*time.Hour + time.Minute),
		}
		require.NoError(t, store.SaveImportRun(ctx, run))
	}
	require.NoError(t, store.SaveImportRun(ctx, &model.ImportRun{
		ID:        "other",
		TenantID:  "tenant-b",
		StartedAt: base,
	}))

	runs, err := store.GetImportRuns(ctx, testScope, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, 7, runs[0].CreatedCount)
	assert.Equal(t, "staff.xlsx", runs[0].Source)
	assert.Equal(t, time.Minute, runs[0].Duration())

	all, err := store.GetImportRuns(ctx, testScope, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestImportRuns_Incomplete(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	require.NoError(t, store.SaveImportRun(ctx, &model.ImportRun{
		ID:        "run-1",
		TenantID:  testScope.TenantID,
		StartedAt: time.Now(),
	}))

	runs, err := store.GetImportRuns(ctx, testScope, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].CompletedAt.IsZero())
	assert.Zero(t, runs[0].Duration())
}

func TestImportRuns_Validation(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	tests := []struct {
		run  *model.ImportRun
		name string
	}{
		{name: "missing id", run: &model.ImportRun{TenantID: "t", StartedAt: time.Now()}},
		{name: "missing tenant", run: &model.ImportRun{ID: "r", StartedAt: time.Now()}},
		{name: "missing start", run: &model.ImportRun{ID: "r", TenantID: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveImportRun(ctx, tt.run)
			assert.ErrorIs(t, err, ErrInvalidImportRun)
		})
	}

	assert.ErrorIs(t, store.SaveImportRun(ctx, nil), ErrNilParameter)
}

func TestImportRuns_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	run := &model.ImportRun{ID: "run-1", TenantID: testScope.TenantID, StartedAt: time.Now()}
	require.NoError(t, store.SaveImportRun(ctx, run))
	err := store.SaveImportRun(ctx, run)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}
