package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Veraticus/roster/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/sheets/v4"
)

func sampleTable() transform.Table {
	return transform.Table{
		Header: []string{"Row", "Status", "Email", "Errors"},
		Rows: [][]string{
			{"1", "ok", "a@example.com", ""},
			{"2", "invalid", "b", "invalid email \"b\""},
			{"3", "invalid", "", "missing first name"},
			{"4", "duplicate", "a@example.com", "same email as row 1"},
		},
		Status: []string{"ok", "invalid", "invalid", "duplicate"},
	}
}

func TestPreviewValues(t *testing.T) {
	values := PreviewValues(sampleTable())
	require.Len(t, values, 5)
	assert.Equal(t, []any{"Row", "Status", "Email", "Errors"}, values[0])
	assert.Equal(t, []any{"4", "duplicate", "a@example.com", "same email as row 1"}, values[4])
}

func TestStatusRequests(t *testing.T) {
	requests := statusRequests(9, sampleTable())
	require.Len(t, requests, 2)

	invalid := requests[0].RepeatCell.Range
	assert.Equal(t, int64(9), invalid.SheetId)
	assert.Equal(t, int64(2), invalid.StartRowIndex)
	assert.Equal(t, int64(4), invalid.EndRowIndex)
	assert.Equal(t, int64(4), invalid.EndColumnIndex)

	dup := requests[1].RepeatCell.Range
	assert.Equal(t, int64(4), dup.StartRowIndex)
	assert.Equal(t, int64(5), dup.EndRowIndex)
	assert.Equal(t, statusColors["duplicate"], requests[1].RepeatCell.Cell.UserEnteredFormat.BackgroundColor)
}

func TestWriter_WritePreviewCreatesSpreadsheet(t *testing.T) {
	fake, svc := newFakeAPI(t)

	var created sheets.Spreadsheet
	fake.on(http.MethodPost, "/v4/spreadsheets", func(body []byte) (int, any) {
		_ = json.Unmarshal(body, &created)
		return http.StatusOK, map[string]any{"spreadsheetId": "new-id", "spreadsheetUrl": "https://example.invalid/new-id"}
	})
	fake.on(http.MethodGet, "/v4/spreadsheets/new-id", func([]byte) (int, any) {
		return http.StatusOK, map[string]any{
			"sheets": []any{map[string]any{"properties": map[string]any{"title": "Preview", "sheetId": 42}}},
		}
	})
	fake.on(http.MethodPost, ":clear", func([]byte) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	var written sheets.ValueRange
	fake.on(http.MethodPut, "!A1", func(body []byte) (int, any) {
		_ = json.Unmarshal(body, &written)
		return http.StatusOK, map[string]any{}
	})
	var formatting sheets.BatchUpdateSpreadsheetRequest
	fake.on(http.MethodPost, ":batchUpdate", func(body []byte) (int, any) {
		_ = json.Unmarshal(body, &formatting)
		return http.StatusOK, map[string]any{}
	})

	writer := NewWriterWithService(svc, testConfig(), nil)
	id, err := writer.WritePreview(context.Background(), sampleTable())
	require.NoError(t, err)

	assert.Equal(t, "new-id", id)
	assert.Equal(t, DefaultSpreadsheetName, created.Properties.Title)
	assert.Equal(t, "Asia/Jerusalem", created.Properties.TimeZone)
	require.Len(t, written.Values, 5)
	assert.Equal(t, "Status", written.Values[0][1])

	require.NotEmpty(t, formatting.Requests)
	assert.Equal(t, int64(42), formatting.Requests[0].RepeatCell.Range.SheetId)
	assert.True(t, formatting.Requests[1].UpdateSheetProperties.Properties.RightToLeft)
	assert.Equal(t, 1, fake.called(http.MethodPost, ":clear"))
}

func TestWriter_WritePreviewAddsMissingTab(t *testing.T) {
	fake, svc := newFakeAPI(t)
	fake.on(http.MethodGet, "/v4/spreadsheets/existing", func([]byte) (int, any) {
		return http.StatusOK, map[string]any{
			"sheets": []any{map[string]any{"properties": map[string]any{"title": "Sheet1", "sheetId": 0}}},
		}
	})
	var batches []sheets.BatchUpdateSpreadsheetRequest
	fake.on(http.MethodPost, ":batchUpdate", func(body []byte) (int, any) {
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.Unmarshal(body, &req)
		batches = append(batches, req)
		return http.StatusOK, map[string]any{
			"replies": []any{map[string]any{"addSheet": map[string]any{"properties": map[string]any{"sheetId": 7, "title": "Preview"}}}},
		}
	})
	fake.on(http.MethodPost, ":clear", func([]byte) (int, any) { return http.StatusOK, map[string]any{} })
	fake.on(http.MethodPut, "!A1", func([]byte) (int, any) { return http.StatusOK, map[string]any{} })

	cfg := testConfig()
	cfg.SpreadsheetID = "existing"
	cfg.EnableFormatting = false

	id, err := NewWriterWithService(svc, cfg, nil).WritePreview(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "existing", id)

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Requests, 1)
	assert.Equal(t, "Preview", batches[0].Requests[0].AddSheet.Properties.Title)
}
