package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingTemplate_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	columns := []string{"שם פרטי", "שם משפחה", "מייל", "Shirt"}
	tmpl := mapping.NewTemplate(columns, []mapping.Mapping{
		mapping.NewMapping(mapping.FieldFirstName, "שם פרטי"),
		mapping.NewMapping(mapping.FieldLastName, "שם משפחה"),
		mapping.NewMapping(mapping.FieldEmail, "מייל"),
		mapping.NewCustomMapping("shirt size", "Shirt"),
	})

	require.NoError(t, store.SaveMappingTemplate(ctx, testScope, &tmpl))

	got, err := store.GetMappingTemplate(ctx, testScope, tmpl.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Fingerprint, got.Fingerprint)
	assert.Equal(t, columns, got.Columns)
	assert.Equal(t, tmpl.Mappings, got.Mappings)
	assert.Equal(t, 1, got.UseCount)
	assert.False(t, got.UpdatedAt.IsZero())
	assert.True(t, got.Applies(columns))
}

func TestMappingTemplate_SaveAgainReplacesAndCounts(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	columns := []string{"First", "Last", "Mail"}
	first := mapping.NewTemplate(columns, []mapping.Mapping{
		mapping.NewMapping(mapping.FieldFirstName, "First"),
		mapping.NewMapping(mapping.FieldLastName, "Last"),
	})
	require.NoError(t, store.SaveMappingTemplate(ctx, testScope, &first))

	second := mapping.NewTemplate(columns, []mapping.Mapping{
		mapping.NewMapping(mapping.FieldFirstName, "First"),
		mapping.NewMapping(mapping.FieldLastName, "Last"),
		mapping.NewMapping(mapping.FieldEmail, "Mail"),
	})
	require.NoError(t, store.SaveMappingTemplate(ctx, testScope, &second))

	got, err := store.GetMappingTemplate(ctx, testScope, first.Fingerprint)
	require.NoError(t, err)
	assert.Len(t, got.Mappings, 3)
	assert.Equal(t, 2, got.UseCount)
}

func TestMappingTemplate_NotFound(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	tmpl := mapping.NewTemplate([]string{"A"}, []mapping.Mapping{mapping.NewMapping(mapping.FieldNotes, "A")})
	require.NoError(t, store.SaveMappingTemplate(ctx, testScope, &tmpl))

	_, err := store.GetMappingTemplate(ctx, testScope, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Templates are per tenant.
	_, err = store.GetMappingTemplate(ctx, model.Scope{TenantID: "tenant-b"}, tmpl.Fingerprint)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMappingTemplate_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := createMemoryStorage(t)

	tests := []struct {
		tmpl    *mapping.Template
		wantErr error
		name    string
	}{
		{name: "nil", tmpl: nil, wantErr: ErrNilParameter},
		{name: "no fingerprint", tmpl: &mapping.Template{}, wantErr: ErrInvalidTemplate},
		{
			name: "duplicate field",
			tmpl: &mapping.Template{
				Fingerprint: "fp",
				Mappings: []mapping.Mapping{
					mapping.NewMapping(mapping.FieldEmail, "A"),
					mapping.NewMapping(mapping.FieldEmail, "B"),
				},
			},
			wantErr: mapping.ErrDuplicateFieldMapping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveMappingTemplate(ctx, testScope, tt.tmpl)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, common.IsRetryable(err))
		})
	}
}
