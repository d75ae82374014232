// Package spreadsheet reads tabular employee files into a uniform Sheet and
// writes preview workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoHeader is returned when a file has no non-blank row.
	ErrNoHeader = errors.New("no header row found")
	// ErrNoData is returned when a file has a header but no data rows.
	ErrNoData = errors.New("file contains no data rows")
	// ErrUnsupportedFormat is returned for file extensions that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrSheetNotFound is returned when a requested worksheet does not exist.
	ErrSheetNotFound = errors.New("worksheet not found")
)

// Sheet is a parsed worksheet. Columns are unique and non-empty; every row has
// a value for every column.
type Sheet struct {
	Name     string
	Columns  []string
	Rows     []map[string]string
	Warnings []string
}

// FromRecords builds a Sheet from raw cell records. The first non-blank record
// is the header. Blank headers become "column N" and repeated headers get a
// " (2)", " (3)" suffix. Blank data rows are skipped.
func FromRecords(name string, records [][]string) (*Sheet, error) {
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	width := 0
	for _, rec := range records[start:] {
		if w := usedWidth(rec); w > width {
			width = w
		}
	}

	sheet := &Sheet{
		Name:    name,
		Columns: headers(records[start], width),
	}

	for i, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		if usedWidth(rec) > usedWidth(records[start]) {
			sheet.Warnings = append(sheet.Warnings,
				fmt.Sprintf("row %d has values beyond the last named column", start+i+2))
		}
		row := make(map[string]string, width)
		for j, col := range sheet.Columns {
			if j < len(rec) {
				row[col] = strings.TrimSpace(rec[j])
			} else {
				row[col] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrNoData
	}
	return sheet, nil
}

// Limit keeps the first maxRows data rows and records a warning when rows
// were dropped. A non-positive maxRows keeps every row.
func (s *Sheet) Limit(maxRows int) {
	if maxRows <= 0 || len(s.Rows) <= maxRows {
		return
	}
	s.Warnings = append(s.Warnings,
		fmt.Sprintf("only the first %d of %d rows were read", maxRows, len(s.Rows)))
	s.Rows = s.Rows[:maxRows]
}

// Records returns the sheet rows as cell slices in column order.
func (s *Sheet) Records() [][]string {
	out := make([][]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		rec := make([]string, len(s.Columns))
		for i, col := range s.Columns {
			rec[i] = row[col]
		}
		out = append(out, rec)
	}
	return out
}

func headers(raw []string, width int) []string {
	out := make([]string, width)
	seen := make(map[string]int, width)

	for i := 0; i < width; i++ {
		h := ""
		if i < len(raw) {
			h = strings.Join(strings.Fields(raw[i]), " ")
		}
		if h == "" {
			h = fmt.Sprintf("column %d", i+1)
		}

		key := strings.ToLower(h)
		seen[key]++
		if n := seen[key]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
			seen[strings.ToLower(h)]++
		}
		out[i] = h
	}
	return out
}

func usedWidth(rec []string) int {
	for i := len(rec) - 1; i >= 0; i-- {
		if strings.TrimSpace(rec[i]) != "" {
			return i + 1
		}
	}
	return 0
}

func blank(rec []string) bool {
	return usedWidth(rec) == 0
}
