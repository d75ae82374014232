package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/config"
	"github.com/Veraticus/roster/internal/sheets"
	"github.com/Veraticus/roster/internal/transform"
)

func importSheetsCmd() *cobra.Command {
	var opts importOptions
	var readRange string

	cmd := &cobra.Command{
		Use:   "sheets <spreadsheet-id>",
		Short: "Import employees from a Google Sheets spreadsheet",
		Long: `Import employees from a Google Sheets spreadsheet.

Reads the first tab unless --range names a tab or an A1 range. Requires
Google Sheets credentials; run 'roster auth sheets' first when using OAuth2.`,
		Example: `  roster import sheets 1AbC...xyz
  roster import sheets 1AbC...xyz --range "'עובדים'!A1:J500"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadImportConfig()
			if err != nil {
				return tenantHint(err)
			}

			sheetsCfg, err := config.LoadSheetsConfig()
			if err != nil {
				return common.NewUserError("Google Sheets is not configured; run 'roster auth sheets'", err)
			}

			reader, err := sheets.NewReader(cmd.Context(), *sheetsCfg, slog.Default())
			if err != nil {
				return err
			}

			sheet, err := reader.Read(cmd.Context(), args[0], readRange)
			if err != nil {
				return fmt.Errorf("%w: %w", common.ErrSourceRead, err)
			}

			return runImport(cmd, cfg, "sheets:"+args[0], sheet, opts)
		},
	}

	cmd.Flags().StringVar(&readRange, "range", "", "tab name or A1 range to read")
	opts.register(cmd)

	return cmd
}

// writeSheetsPreview exports the preview table and returns the spreadsheet id.
func writeSheetsPreview(ctx context.Context, table transform.Table) (string, error) {
	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return "", common.NewUserError("Google Sheets is not configured; run 'roster auth sheets'", err)
	}

	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return "", err
	}

	id, err := writer.WritePreview(ctx, table)
	if err != nil {
		return "", fmt.Errorf("failed to export preview: %w", err)
	}
	return id, nil
}
