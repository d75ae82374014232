package spreadsheet

import (
	"fmt"
	"io"

	"github.com/Veraticus/roster/internal/transform"
	"github.com/xuri/excelize/v2"
)

// PreviewSheetName is the worksheet name of exported previews.
const PreviewSheetName = "Preview"

var statusFills = map[string]string{
	"invalid":   "FFC7CE",
	"duplicate": "FFEB9C",
}

// WritePreview writes the preview table as an xlsx workbook. Rows are shaded
// by status and the sheet is laid out right to left when rtl is set.
func WritePreview(w io.Writer, table transform.Table, rtl bool) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), PreviewSheetName); err != nil {
		return fmt.Errorf("failed to name preview sheet: %w", err)
	}
	if err := f.SetSheetView(PreviewSheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("failed to set sheet view: %w", err)
	}

	header := make([]any, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(PreviewSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(max(len(table.Header), 1), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(PreviewSheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	fills := make(map[string]int, len(statusFills))
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("failed to create %s style: %w", status, err)
		}
		fills[status] = id
	}

	for i, row := range table.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(PreviewSheetName, start, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}

		if i >= len(table.Status) {
			continue
		}
		style, ok := fills[table.Status[i]]
		if !ok || len(row) == 0 {
			continue
		}
		end, err := excelize.CoordinatesToCellName(len(row), i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(PreviewSheetName, start, end, style); err != nil {
			return fmt.Errorf("failed to style row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(PreviewSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
