package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/transform"
	"google.golang.org/api/sheets/v4"
)

var statusColors = map[string]*sheets.Color{
	"invalid":   {Red: 1, Green: 0.78, Blue: 0.81},
	"duplicate": {Red: 1, Green: 0.92, Blue: 0.61},
}

// Writer exports import previews to Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets preview writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWriterWithService(srv, config, logger), nil
}

// NewWriterWithService creates a writer on an existing API client.
func NewWriterWithService(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.PreviewTab == "" {
		config.PreviewTab = DefaultConfig().PreviewTab
	}
	return &Writer{service: srv, config: config, logger: logger}
}

// WritePreview replaces the preview tab with the table and returns the
// spreadsheet id written to.
func (w *Writer) WritePreview(ctx context.Context, table transform.Table) (string, error) {
	w.logger.Info("starting preview export", "rows", len(table.Rows))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := w.config.retryOptions()

	var sheetID int64
	err = common.WithRetry(ctx, func() error {
		var tabErr error
		sheetID, tabErr = w.ensureTab(ctx, spreadsheetID)
		return apiError(tabErr)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to prepare preview tab: %w", err)
	}

	if clearErr := w.clearTab(ctx, spreadsheetID); clearErr != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := PreviewValues(table)
	err = common.WithRetry(ctx, func() error {
		return apiError(w.writeData(ctx, spreadsheetID, values))
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return apiError(w.applyFormatting(ctx, spreadsheetID, sheetID, table))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
			// Don't fail the whole operation if formatting fails
		}
	}

	w.logger.Info("preview export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return spreadsheetID, nil
}

// PreviewValues converts a preview table to API values, header first.
func PreviewValues(table transform.Table) [][]any {
	values := make([][]any, 0, len(table.Rows)+1)
	values = append(values, toRow(table.Header))
	for _, row := range table.Rows {
		values = append(values, toRow(row))
	}
	return values
}

func toRow(cells []string) []any {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: w.config.PreviewTab,
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// ensureTab returns the sheet id of the preview tab, adding the tab if missing.
func (w *Writer) ensureTab(ctx context.Context, spreadsheetID string) (int64, error) {
	doc, err := w.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, s := range doc.Sheets {
		if s.Properties != nil && s.Properties.Title == w.config.PreviewTab {
			return s.Properties.SheetId, nil
		}
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: w.config.PreviewTab},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %q returned no properties", w.config.PreviewTab)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, quoteSheetTitle(w.config.PreviewTab), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes the data to the spreadsheet.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	// Write in batches to avoid API limits
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := fmt.Sprintf("%s!A%d", quoteSheetTitle(w.config.PreviewTab), i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds and freezes the header, shades rows by status and
// sets the sheet direction.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, table transform.Table) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(table.Header)),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:     sheetID,
					RightToLeft: w.config.RightToLeft,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
					ForceSendFields: []string{"RightToLeft"},
				},
				Fields: "gridProperties.frozenRowCount,rightToLeft",
			},
		},
	}

	requests = append(requests, statusRequests(sheetID, table)...)

	requests = append(requests, &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   int64(len(table.Header)),
			},
		},
	})

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}

// statusRequests shades each non-ok row, merging consecutive rows of the same status.
func statusRequests(sheetID int64, table transform.Table) []*sheets.Request {
	var requests []*sheets.Request
	for start := 0; start < len(table.Status); {
		status := table.Status[start]
		end := start + 1
		for end < len(table.Status) && table.Status[end] == status {
			end++
		}

		if color, ok := statusColors[status]; ok {
			requests = append(requests, &sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    int64(start + 1),
						EndRowIndex:      int64(end + 1),
						StartColumnIndex: 0,
						EndColumnIndex:   int64(len(table.Header)),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{BackgroundColor: color},
					},
					Fields: "userEnteredFormat.backgroundColor",
				},
			})
		}
		start = end
	}
	return requests
}
