package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/spreadsheet"
	"google.golang.org/api/sheets/v4"
)

// ErrNoSheets is returned when a spreadsheet has no tabs to read.
var ErrNoSheets = errors.New("spreadsheet has no sheets")

// Reader loads employee lists from Google Sheets.
type Reader struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewReader creates a reader authenticated with config.
func NewReader(ctx context.Context, config Config, logger *slog.Logger) (*Reader, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewReaderWithService(srv, config, logger), nil
}

// NewReaderWithService creates a reader on an existing API client.
func NewReaderWithService(srv *sheets.Service, config Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{service: srv, config: config, logger: logger}
}

// Read loads a range in A1 notation. An empty range reads the whole first tab.
func (r *Reader) Read(ctx context.Context, spreadsheetID, readRange string) (*spreadsheet.Sheet, error) {
	title := readRange
	if readRange == "" {
		var err error
		title, err = r.firstSheetTitle(ctx, spreadsheetID)
		if err != nil {
			return nil, err
		}
		readRange = quoteSheetTitle(title)
	} else if i := strings.LastIndex(readRange, "!"); i >= 0 {
		title = strings.Trim(readRange[:i], "'")
	}

	var resp *sheets.ValueRange
	err := common.WithRetry(ctx, func() error {
		var getErr error
		resp, getErr = r.service.Spreadsheets.Values.Get(spreadsheetID, readRange).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).
			Do()
		return apiError(getErr)
	}, r.config.retryOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}

	r.logger.Debug("read sheet values",
		"spreadsheet_id", spreadsheetID,
		"range", resp.Range,
		"rows", len(resp.Values))

	return spreadsheet.FromRecords(title, ValuesToRecords(resp.Values))
}

func (r *Reader) firstSheetTitle(ctx context.Context, spreadsheetID string) (string, error) {
	var doc *sheets.Spreadsheet
	err := common.WithRetry(ctx, func() error {
		var getErr error
		doc, getErr = r.service.Spreadsheets.Get(spreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).
			Do()
		return apiError(getErr)
	}, r.config.retryOptions())
	if err != nil {
		return "", fmt.Errorf("unable to access spreadsheet %s: %w", spreadsheetID, err)
	}

	for _, s := range doc.Sheets {
		if s.Properties != nil && s.Properties.Title != "" {
			return s.Properties.Title, nil
		}
	}
	return "", ErrNoSheets
}

// ValuesToRecords converts API cell values to strings.
func ValuesToRecords(values [][]any) [][]string {
	records := make([][]string, len(values))
	for i, row := range values {
		rec := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				rec[j] = fmt.Sprint(cell)
			}
		}
		records[i] = rec
	}
	return records
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
