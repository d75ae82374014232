package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/transform"
)

// RenderTable draws a bordered table with a styled header row.
func RenderTable(header []string, rows [][]string) string {
	return newTable(header, rows).Render()
}

func newTable(header []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(SubtleColor)).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return BoldStyle.Foreground(PrimaryColor).Padding(0, 1)
			}
			return TableCellStyle
		})
}

// RenderMappings shows the current mappings followed by the unmapped columns.
func RenderMappings(mappings []mapping.Mapping, unmapped []string) string {
	rows := make([][]string, 0, len(mappings))
	for _, m := range mappings {
		if !m.IsAssigned() {
			continue
		}
		rows = append(rows, []string{m.TargetField.Label(), strings.Join(m.SourceColumns, ", ")})
	}

	var b strings.Builder
	b.WriteString(FormatTitle("Column mappings"))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(FormatWarning("No columns are mapped"))
	} else {
		b.WriteString(RenderTable([]string{"Field", "Columns"}, rows))
	}
	if len(unmapped) > 0 {
		b.WriteString("\n")
		b.WriteString(SubtleStyle.Render("Unmapped: " + strings.Join(unmapped, ", ")))
	}
	return b.String()
}

// RenderPreview shows up to limit rows of the preview table. A limit of zero
// or less shows every row.
func RenderPreview(t transform.Table, limit int) string {
	rows := t.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	tbl := newTable(t.Header, rows).StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return BoldStyle.Foreground(PrimaryColor).Padding(0, 1)
		}
		if row < len(t.Status) {
			return StatusStyle(t.Status[row]).Padding(0, 1)
		}
		return TableCellStyle
	})

	out := tbl.Render()
	if hidden := len(t.Rows) - len(rows); hidden > 0 {
		out += "\n" + SubtleStyle.Render(fmt.Sprintf("… %d more rows", hidden))
	}
	return out
}

// RenderSummary describes the preview counts and, once committed, the run.
func RenderSummary(s transform.Summary, run *model.ImportRun) string {
	lines := []string{
		fmt.Sprintf("Rows:        %d", s.Total),
		StyleSuccess(fmt.Sprintf("Valid:       %d", s.Valid)),
		StyleError(fmt.Sprintf("Invalid:     %d", s.Invalid)),
		StyleWarning(fmt.Sprintf("Duplicates:  %d", s.Duplicates)),
		BoldStyle.Render(fmt.Sprintf("To import:   %d", s.Committable)),
	}
	title := "Preview"
	if run != nil {
		title = "Import complete"
		lines = append(lines,
			"",
			fmt.Sprintf("Created:     %d", run.CreatedCount),
			SubtleStyle.Render(fmt.Sprintf("Run %s in %s", run.ID, run.Duration().Round(time.Millisecond))),
		)
	}
	return RenderBox(title, strings.Join(lines, "\n"))
}

// RenderRules lists detection rules in the order they are tried.
func RenderRules(rules []mapping.DetectionRule) string {
	rows := make([][]string, 0, len(rules))
	for i, r := range rules {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Label,
			string(r.Field),
			strings.Join(r.Patterns, "  "),
		})
	}
	return RenderTable([]string{"#", "Field", "ID", "Patterns"}, rows)
}
