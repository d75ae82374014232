// Package tui provides a full-screen editor for reviewing column mappings
// before an import is previewed.
package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/tui/themes"
)

// MappingEditor is the part of an import session the editor changes.
type MappingEditor interface {
	Columns() []string
	Mappings() []mapping.Mapping
	Assign(column string, field mapping.FieldID) error
	AssignCustom(column, name string) error
}

// State is the pane that has focus.
type State int

// Editor states.
const (
	StateColumns State = iota
	StateFields
	StateCustom
)

// Choices offered after the schema fields.
const (
	choiceCustom  = "custom"
	choiceUnmap   = "unmap"
	headerWidth   = 28
	fieldWidth    = 24
	fieldIDWidth  = 16
	chromeHeight  = 8
	minListHeight = 5
)

// Model holds the editor state.
type Model struct {
	theme    themes.Theme
	editor   MappingEditor
	lastErr  error
	keymap   KeyMap
	help     help.Model
	columns  table.Model
	fields   table.Model
	custom   textinput.Model
	choices  []mapping.FieldID
	column   string
	width    int
	height   int
	state    State
	accepted bool
	quitting bool
	alt      bool
}

// NewModel creates an editor over the session's current mappings.
func NewModel(editor MappingEditor, cfg Config) Model {
	m := Model{
		theme:  cfg.Theme,
		editor: editor,
		keymap: DefaultKeyMap(),
		help:   help.New(),
		width:  cfg.Width,
		height: cfg.Height,
		alt:    cfg.AltScreen,
	}

	m.columns = table.New(
		table.WithColumns([]table.Column{
			{Title: "Column", Width: headerWidth},
			{Title: "Field", Width: fieldWidth},
		}),
		table.WithFocused(true),
	)
	m.columns.SetStyles(m.tableStyles())

	m.choices = append(mapping.Fields(), choiceCustom, choiceUnmap)
	fieldRows := make([]table.Row, 0, len(m.choices))
	for _, f := range m.choices {
		fieldRows = append(fieldRows, table.Row{choiceLabel(f), choiceID(f)})
	}
	m.fields = table.New(
		table.WithColumns([]table.Column{
			{Title: "Field", Width: fieldWidth},
			{Title: "ID", Width: fieldIDWidth},
		}),
		table.WithRows(fieldRows),
	)
	m.fields.SetStyles(m.tableStyles())

	m.custom = textinput.New()
	m.custom.Placeholder = "custom field name"
	m.custom.CharLimit = 64

	m.refresh()
	m.resize()
	return m
}

func choiceLabel(f mapping.FieldID) string {
	switch f {
	case choiceCustom:
		return "Custom field…"
	case choiceUnmap:
		return "Do not import"
	default:
		return f.Label()
	}
}

func choiceID(f mapping.FieldID) string {
	if f == choiceCustom || f == choiceUnmap {
		return ""
	}
	return string(f)
}

func (m Model) tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = m.theme.Header
	s.Selected = m.theme.Selected
	return s
}

// Accepted reports whether the user accepted the mappings.
func (m Model) Accepted() bool { return m.accepted }

// State returns the pane that has focus.
func (m Model) State() State { return m.state }

// Err returns the last error shown to the user.
func (m Model) Err() error { return m.lastErr }

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.alt {
		return tea.EnterAltScreen
	}
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.state {
		case StateFields:
			return m.updateFields(msg)
		case StateCustom:
			return m.updateCustom(msg)
		default:
			return m.updateColumns(msg)
		}
	}
	return m, nil
}

func (m Model) updateColumns(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Accept):
		if err := mapping.Validate(m.editor.Mappings()); err != nil {
			m.lastErr = err
			return m, nil
		}
		m.accepted = true
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keymap.Select):
		if m.column = m.selectedColumn(); m.column == "" {
			return m, nil
		}
		m.state = StateFields
		m.columns.Blur()
		m.fields.Focus()
		m.fields.SetCursor(m.choiceIndex(m.fieldOf(m.column)))
		return m, nil

	case key.Matches(msg, m.keymap.Custom):
		if m.column = m.selectedColumn(); m.column == "" {
			return m, nil
		}
		return m, m.startCustom()

	case key.Matches(msg, m.keymap.Unmap):
		if column := m.selectedColumn(); column != "" {
			m.apply(m.editor.Assign(column, ""))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.columns, cmd = m.columns.Update(msg)
	return m, cmd
}

func (m Model) updateFields(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Back):
		m.backToColumns()
		return m, nil

	case key.Matches(msg, m.keymap.Select):
		choice := m.choices[m.fields.Cursor()]
		switch choice {
		case choiceCustom:
			return m, m.startCustom()
		case choiceUnmap:
			m.apply(m.editor.Assign(m.column, ""))
		default:
			m.apply(m.editor.Assign(m.column, choice))
		}
		m.backToColumns()
		return m, nil
	}

	var cmd tea.Cmd
	m.fields, cmd = m.fields.Update(msg)
	return m, cmd
}

func (m Model) updateCustom(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.custom.Blur()
		m.backToColumns()
		return m, nil
	case tea.KeyEnter:
		m.apply(m.editor.AssignCustom(m.column, m.custom.Value()))
		m.custom.Blur()
		m.backToColumns()
		return m, nil
	}

	var cmd tea.Cmd
	m.custom, cmd = m.custom.Update(msg)
	return m, cmd
}

func (m *Model) startCustom() tea.Cmd {
	m.state = StateCustom
	m.columns.Blur()
	m.fields.Blur()
	name := m.column
	if f := m.fieldOf(m.column); f.IsCustom() {
		name = f.CustomName()
	}
	m.custom.SetValue(name)
	m.custom.CursorEnd()
	return m.custom.Focus()
}

func (m *Model) backToColumns() {
	m.state = StateColumns
	m.fields.Blur()
	m.columns.Focus()
}

// apply records the outcome of an edit and redraws the column list.
func (m *Model) apply(err error) {
	m.lastErr = err
	m.refresh()
}

func (m *Model) refresh() {
	cols := m.editor.Columns()
	rows := make([]table.Row, 0, len(cols))
	for _, c := range cols {
		label := "-"
		if f := m.fieldOf(c); f != "" {
			label = f.Label()
		}
		rows = append(rows, table.Row{c, label})
	}
	m.columns.SetRows(rows)
}

func (m *Model) resize() {
	h := m.height - chromeHeight
	if m.help.ShowAll {
		h -= 3
	}
	if h < minListHeight {
		h = minListHeight
	}
	m.columns.SetHeight(h)
	m.fields.SetHeight(h)
	m.help.Width = m.width
}

func (m Model) selectedColumn() string {
	row := m.columns.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (m Model) fieldOf(column string) mapping.FieldID {
	for _, mp := range m.editor.Mappings() {
		for _, c := range mp.SourceColumns {
			if c == column {
				return mp.TargetField
			}
		}
	}
	return ""
}

func (m Model) choiceIndex(f mapping.FieldID) int {
	if f.IsCustom() {
		f = choiceCustom
	}
	for i, c := range m.choices {
		if c == f {
			return i
		}
	}
	return len(m.choices) - 1
}

// errorMessage returns the text shown for an edit or validation failure.
func errorMessage(err error) string {
	var verr *mapping.ValidationError
	if errors.As(err, &verr) {
		return verr.Message()
	}
	return err.Error()
}
