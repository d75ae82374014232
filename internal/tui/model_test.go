package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/tui/themes"
)

type fakeEditor struct {
	columns  []string
	mappings []mapping.Mapping
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{
		columns: []string{"First", "Last", "Extra"},
		mappings: []mapping.Mapping{
			mapping.NewMapping(mapping.FieldFirstName, "First"),
			mapping.NewMapping(mapping.FieldLastName, "Last"),
		},
	}
}

func (f *fakeEditor) Columns() []string           { return f.columns }
func (f *fakeEditor) Mappings() []mapping.Mapping { return f.mappings }

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

func testConfig() Config {
	return Config{Theme: themes.Default, Width: 120, Height: 30}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

// send feeds messages through Update and returns the resulting model and last command.
func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_Accept(t *testing.T) {
	m, cmd := send(t, NewModel(newFakeEditor(), testConfig()), runes("a"))

	assert.True(t, m.Accepted())
	assert.True(t, isQuit(cmd))
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"q", runes("q")},
		{"esc", esc},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := send(t, NewModel(newFakeEditor(), testConfig()), tt.msg)

			assert.False(t, m.Accepted())
			assert.True(t, isQuit(cmd))
			assert.Empty(t, m.View())
		})
	}
}

func TestModel_ChooseField(t *testing.T) {
	editor := newFakeEditor()
	m := NewModel(editor, testConfig())

	m, _ = send(t, m, enter)
	require.Equal(t, StateFields, m.State())
	assert.Contains(t, m.View(), "Map First to")

	m, _ = send(t, m, down, down, enter)
	assert.Equal(t, StateColumns, m.State())
	assert.Equal(t, mapping.Fields()[2], editor.fieldOf("First"))
}

func TestModel_ChooseFieldForUnmappedColumn(t *testing.T) {
	editor := newFakeEditor()
	m := NewModel(editor, testConfig())

	// Unmapped columns start on "Do not import"; moving up picks the custom choice.
	m, _ = send(t, m, down, down, enter)
	require.Equal(t, StateFields, m.State())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyUp}, enter)
	assert.Equal(t, StateCustom, m.State())
}

func TestModel_BackFromFields(t *testing.T) {
	editor := newFakeEditor()
	m, _ := send(t, NewModel(editor, testConfig()), enter, down, esc)

	assert.Equal(t, StateColumns, m.State())
	assert.Equal(t, mapping.FieldFirstName, editor.fieldOf("First"))
	assert.False(t, m.Accepted())
}

func TestModel_Unmap(t *testing.T) {
	editor := newFakeEditor()
	m, _ := send(t, NewModel(editor, testConfig()), down, runes("x"))

	assert.Empty(t, editor.fieldOf("Last"))
	assert.Contains(t, m.View(), "unmapped: Last, Extra")
}

func TestModel_CustomField(t *testing.T) {
	tests := []struct {
		name  string
		typed []tea.Msg
		want  mapping.FieldID
	}{
		{
			name:  "column header as name",
			typed: nil,
			want:  mapping.CustomField("Extra"),
		},
		{
			name:  "extended name",
			typed: []tea.Msg{runes(" size")},
			want:  mapping.CustomField("Extra size"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := newFakeEditor()
			m, _ := send(t, NewModel(editor, testConfig()), down, down, runes("c"))
			require.Equal(t, StateCustom, m.State())

			m, _ = send(t, m, tt.typed...)
			m, _ = send(t, m, enter)

			assert.Equal(t, StateColumns, m.State())
			assert.Equal(t, tt.want, editor.fieldOf("Extra"))
		})
	}
}

func TestModel_CustomFieldTypingQDoesNotQuit(t *testing.T) {
	editor := newFakeEditor()
	m, _ := send(t, NewModel(editor, testConfig()), down, down, runes("c"))

	m, cmd := send(t, m, runes("q"))
	assert.False(t, isQuit(cmd))
	assert.Equal(t, StateCustom, m.State())
}

func TestModel_AcceptRejectsInvalidMappings(t *testing.T) {
	editor := newFakeEditor()
	editor.mappings = append(editor.mappings, mapping.NewMapping(mapping.FieldEmail))

	m, cmd := send(t, NewModel(editor, testConfig()), runes("a"))

	assert.False(t, m.Accepted())
	assert.False(t, isQuit(cmd))
	assert.ErrorIs(t, m.Err(), mapping.ErrIncompleteMapping)
	assert.Contains(t, m.View(), "at least one source column")
}

func TestModel_View(t *testing.T) {
	m := NewModel(newFakeEditor(), testConfig())
	view := m.View()

	assert.Contains(t, view, "Map spreadsheet columns")
	assert.Contains(t, view, "2 of 3 columns mapped")
	assert.Contains(t, view, mapping.FieldFirstName.Label())

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 10})
	assert.NotEmpty(t, m.View())
}

func TestEditMappings(t *testing.T) {
	editor := newFakeEditor()
	var out bytes.Buffer

	accepted, err := EditMappings(context.Background(), editor,
		WithIO(strings.NewReader("a"), &out),
		WithAltScreen(false),
	)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestEditMappings_NilEditor(t *testing.T) {
	_, err := EditMappings(context.Background(), nil)
	assert.Error(t, err)
}
