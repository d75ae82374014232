package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/Veraticus/roster/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWritePreview(t *testing.T) {
	table := transform.Table{
		Header: []string{"Row", "Status", "First name", "Errors"},
		Rows: [][]string{
			{"1", "ok", "Dana", ""},
			{"2", "invalid", "", "missing first name"},
			{"3", "duplicate", "Avi", "same email as row 1"},
		},
		Status: []string{"ok", "invalid", "duplicate"},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, table, true))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(PreviewSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, table.Header, rows[0])
	assert.Equal(t, []string{"2", "invalid", "", "missing first name"}, rows[2])

	okStyle, err := f.GetCellStyle(PreviewSheetName, "A2")
	require.NoError(t, err)
	invalidStyle, err := f.GetCellStyle(PreviewSheetName, "A3")
	require.NoError(t, err)
	dupStyle, err := f.GetCellStyle(PreviewSheetName, "D4")
	require.NoError(t, err)
	assert.NotEqual(t, okStyle, invalidStyle)
	assert.NotEqual(t, invalidStyle, dupStyle)
}

func TestWritePreview_ReadsBackAsSheet(t *testing.T) {
	table := transform.Table{
		Header: []string{"Row", "Status", "Email", "Errors"},
		Rows:   [][]string{{"1", "ok", "dana@example.com", ""}},
		Status: []string{"ok"},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, table, false))

	sheet, err := Read(&buf, "preview.xlsx", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, PreviewSheetName, sheet.Name)
	assert.Equal(t, table.Header, sheet.Columns)
	assert.Equal(t, "dana@example.com", sheet.Rows[0]["Email"])
}
