package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/roster/internal/mapping"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.theme.Title.Render("Map spreadsheet columns"),
		m.renderStatus(),
		m.renderBody(),
	}
	if m.lastErr != nil {
		sections = append(sections, m.theme.StatusError.Render("✗ "+errorMessage(m.lastErr)))
	}
	sections = append(sections, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderBody() string {
	switch m.state {
	case StateFields:
		left := m.theme.BorderedBox.Render(m.columns.View())
		right := m.theme.BorderedBox.
			BorderForeground(m.theme.Primary).
			Render(m.theme.Subtitle.Render("Map "+m.column+" to") + "\n" + m.fields.View())
		if m.width < 2*(headerWidth+fieldWidth) {
			return right
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	case StateCustom:
		prompt := m.theme.Subtitle.Render(fmt.Sprintf("Custom field for %s (Enter to save, Esc to cancel)", m.column))
		return m.theme.BorderedBox.
			BorderForeground(m.theme.Primary).
			Render(prompt + "\n" + m.custom.View())

	default:
		return m.theme.BorderedBox.Render(m.columns.View())
	}
}

// renderStatus summarises how many columns are mapped.
func (m Model) renderStatus() string {
	columns := m.editor.Columns()
	unmapped := mapping.Unmapped(columns, m.editor.Mappings())
	mapped := len(columns) - len(unmapped)

	status := m.theme.StatusSuccess.Render(fmt.Sprintf("%d of %d columns mapped", mapped, len(columns)))
	if len(unmapped) == 0 {
		return status
	}
	return status + "  " + m.theme.Unmapped.Render("unmapped: "+strings.Join(unmapped, ", "))
}
