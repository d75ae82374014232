package transform

import (
	"strconv"
	"strings"

	"github.com/Veraticus/roster/internal/mapping"
)

// Table is the preview grid: one row per record, one column per mapped field,
// framed by row number, status and error columns.
type Table struct {
	Header []string
	Rows   [][]string
	Status []string
}

// PreviewTable lays out records for display or export.
func PreviewTable(mappings []mapping.Mapping, records []PreviewRecord) Table {
	confirmed := mapping.Confirmed(mappings)

	t := Table{Header: []string{"Row", "Status"}}
	for _, m := range confirmed {
		t.Header = append(t.Header, m.TargetField.Label())
	}
	t.Header = append(t.Header, "Errors")

	for _, rec := range records {
		row := []string{strconv.Itoa(rec.RowIndex), rec.Status()}
		for _, m := range confirmed {
			if m.TargetField.IsCustom() {
				row = append(row, rec.CustomFields[m.TargetField.CustomName()])
				continue
			}
			row = append(row, rec.Fields[m.TargetField])
		}
		row = append(row, strings.Join(rec.Errors, "; "))
		t.Rows = append(t.Rows, row)
		t.Status = append(t.Status, rec.Status())
	}
	return t
}
