package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/roster/internal/mapping"
)

type fakeEditor struct {
	columns  []string
	mappings []mapping.Mapping
}

func newFakeEditor(columns ...string) *fakeEditor {
	return &fakeEditor{columns: columns, mappings: mapping.Aggregate(columns)}
}

func (f *fakeEditor) Columns() []string           { return f.columns }
func (f *fakeEditor) Mappings() []mapping.Mapping { return f.mappings }
func (f *fakeEditor) Unmapped() []string          { return mapping.Unmapped(f.columns, f.mappings) }

func (f *fakeEditor) Assign(column string, field mapping.FieldID) error {
	f.mappings = mapping.Assign(f.mappings, column, field)
	return nil
}

func (f *fakeEditor) AssignCustom(column, name string) error {
	f.mappings = mapping.AssignCustom(f.mappings, column, name)
	return nil
}

func (f *fakeEditor) fieldOf(column string) mapping.FieldID {
	for _, m := range f.mappings {
		for _, c := range m.SourceColumns {
			if c == column {
				return m.TargetField
			}
		}
	}
	return ""
}

func TestPrompter_ReviewMappings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		accepted bool
		check    func(t *testing.T, e *fakeEditor)
	}{
		{
			name:     "accept as detected",
			input:    "a\n",
			accepted: true,
			check: func(t *testing.T, e *fakeEditor) {
				t.Helper()
				assert.Equal(t, mapping.FieldFirstName, e.fieldOf("שם פרטי"))
			},
		},
		{
			name:     "quit",
			input:    "q\n",
			accepted: false,
		},
		{
			name:     "map column by number and field by id",
			input:    "m\n3\nnotes\na\n",
			accepted: true,
			check: func(t *testing.T, e *fakeEditor) {
				t.Helper()
				assert.Equal(t, mapping.FieldNotes, e.fieldOf("Extra"))
			},
		},
		{
			name:     "map column by name and field by number",
			input:    "m\nExtra\n5\na\n",
			accepted: true,
			check: func(t *testing.T, e *fakeEditor) {
				t.Helper()
				assert.Equal(t, mapping.Fields()[4], e.fieldOf("Extra"))
			},
		},
		{
			name:     "custom field with default name",
			input:    "c\n3\n\na\n",
			accepted: true,
			check: func(t *testing.T, e *fakeEditor) {
				t.Helper()
				assert.Equal(t, mapping.CustomField("Extra"), e.fieldOf("Extra"))
			},
		},
		{
			name:     "custom field with a name",
			input:    "c\nExtra\nShirt size\na\n",
			accepted: true,
			check: func(t *testing.T, e *fakeEditor) {
				t.Helper()
				assert.Equal(t, mapping.CustomField("Shirt size"), e.fieldOf("Extra"))
			},
		},
		{
			name:     "unmap column",
			input:    "u\n1\na\n",
			accepted: true,
			check: func(t *testing.T, e *fakeEditor) {
				t.Helper()
				assert.Empty(t, e.fieldOf("שם פרטי"))
				assert.Contains(t, e.Unmapped(), "שם פרטי")
			},
		},
		{
			name:     "invalid choices are asked again",
			input:    "x\nm\n99\nExtra\nnope\nnotes\na\n",
			accepted: true,
			check: func(t *testing.T, e *fakeEditor) {
				t.Helper()
				assert.Equal(t, mapping.FieldNotes, e.fieldOf("Extra"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := newFakeEditor("שם פרטי", "אימייל", "Extra")
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			accepted, err := p.ReviewMappings(context.Background(), editor)
			require.NoError(t, err)
			assert.Equal(t, tt.accepted, accepted)
			assert.Contains(t, out.String(), "Column mappings")
			if tt.check != nil {
				tt.check(t, editor)
			}
		})
	}
}

func TestPrompter_ReviewMappingsInputEnds(t *testing.T) {
	p := NewPrompter(strings.NewReader("m\n"), &bytes.Buffer{})

	_, err := p.ReviewMappings(context.Background(), newFakeEditor("Email"))
	assert.ErrorIs(t, err, ErrInputTerminated)
}

func TestPrompter_ReviewMappingsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPrompter(strings.NewReader("a\n"), &bytes.Buffer{})

	_, err := p.ReviewMappings(ctx, newFakeEditor("Email"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Import 3 employees?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Import 3 employees? [y/N]")
		})
	}
}

func TestPrompter_ReviewMappingsRejectsInvalid(t *testing.T) {
	editor := newFakeEditor("Email", "Extra")
	editor.mappings = append(editor.mappings, mapping.NewMapping(mapping.FieldNotes))
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("a\nm\nExtra\nnotes\na\n"), &out)

	accepted, err := p.ReviewMappings(context.Background(), editor)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Contains(t, out.String(), "at least one source column")
}
