package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format identifies a spreadsheet file type.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// DefaultMaxRows bounds the number of data rows kept from a worksheet.
const DefaultMaxRows = 100000

// ReadOptions select what part of a workbook is read.
type ReadOptions struct {
	// SheetName selects a worksheet by name. Empty means the active (xlsx) or
	// first (xls) worksheet.
	SheetName string
	MaxRows   int
}

// DetectFormat returns the format implied by a file name's extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadFile reads the spreadsheet at path.
func ReadFile(path string, opts ReadOptions) (*Sheet, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied import file
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, filepath.Base(path), opts)
}

// Read reads a spreadsheet from r. The filename only selects the format.
func Read(r io.Reader, filename string, opts ReadOptions) (*Sheet, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var (
		name    string
		records [][]string
	)
	switch format {
	case FormatXLSX:
		name, records, err = readXLSX(data, opts)
	case FormatXLS:
		name, records, err = readXLS(data, opts)
	default:
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		var sheet *Sheet
		sheet, err = readCSV(data, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
		}
		sheet.Limit(opts.MaxRows)
		return sheet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	sheet, err := FromRecords(name, records)
	if err != nil {
		return nil, err
	}
	sheet.Limit(opts.MaxRows)
	return sheet, nil
}

func readXLSX(data []byte, opts ReadOptions) (string, [][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = file.Close() }()

	name := opts.SheetName
	if name == "" {
		name = file.GetSheetName(file.GetActiveSheetIndex())
	}
	if name == "" {
		name = file.GetSheetName(0)
	}
	if idx, err := file.GetSheetIndex(name); err != nil || idx < 0 {
		return "", nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	// Raw values keep date cells as serial numbers instead of the
	// workbook's display format.
	rows, err := file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, err
	}
	return name, rows, nil
}

func readXLS(data []byte, opts ReadOptions) (string, [][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, err
	}
	if workbook.NumSheets() == 0 {
		return "", nil, fmt.Errorf("%w: workbook has no worksheets", ErrSheetNotFound)
	}

	var sheet *xls.WorkSheet
	for i := 0; i < workbook.NumSheets(); i++ {
		ws := workbook.GetSheet(i)
		if ws == nil {
			continue
		}
		if opts.SheetName == "" || strings.EqualFold(ws.Name, opts.SheetName) {
			sheet = ws
			break
		}
	}
	if sheet == nil {
		return "", nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.SheetName)
	}

	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		records = append(records, cells)
	}
	return sheet.Name, records, nil
}
