package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/roster/internal/cli"
	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/config"
	"github.com/Veraticus/roster/internal/importer"
	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/spreadsheet"
	"github.com/Veraticus/roster/internal/storage"
	"github.com/Veraticus/roster/internal/tui"
	"github.com/Veraticus/roster/internal/tui/themes"
)

// importOptions are the wizard flags shared by every import source.
type importOptions struct {
	maps          []string
	customs       []string
	exportPreview string
	previewRows   int
	dryRun        bool
	interactive   bool
	editor        bool
	yes           bool
	noCheckpoint  bool
	noTemplates   bool
	exportSheets  bool
}

func (o *importOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVar(&o.maps, "map", nil, "map a column to a field, e.g. --map 'שם פרטי=first_name' (repeatable)")
	f.StringArrayVar(&o.customs, "custom", nil, "import a column as a custom field, e.g. --custom 'Shirt=shirt_size' (repeatable)")
	f.StringVar(&o.exportPreview, "export-preview", "", "write the preview to an .xlsx file")
	f.BoolVar(&o.exportSheets, "export-sheets", false, "write the preview to Google Sheets")
	f.IntVar(&o.previewRows, "preview-rows", 20, "rows of the preview to print (0 prints all)")
	f.BoolVarP(&o.dryRun, "dry-run", "n", false, "stop after the preview without saving")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "review the mappings with prompts")
	f.BoolVar(&o.editor, "tui", false, "review the mappings in a full-screen editor")
	f.BoolVarP(&o.yes, "yes", "y", false, "commit without asking")
	f.BoolVar(&o.noCheckpoint, "no-checkpoint", false, "skip the database checkpoint taken before committing")
	f.BoolVar(&o.noTemplates, "no-templates", false, "do not reuse or save mappings for this header layout")
}

func importCmd() *cobra.Command {
	var opts importOptions
	var sheetName string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import employees from a spreadsheet",
		Long: `Import employees from an .xlsx, .xls or .csv file.

The import runs in four steps:
1. Read the sheet and detect which field each column holds
2. Review the mappings (--interactive or --tui to edit them)
3. Preview every row with its validation errors and duplicates
4. Commit the valid rows in a single transaction

Mappings confirmed for a header layout are remembered and reused the next
time a sheet with the same columns is imported.`,
		Example: `  # Detect, preview and confirm
  roster import staff.xlsx

  # Fix a mapping and preview without saving
  roster import staff.csv --map 'טלפון נייד=phone' --dry-run

  # Edit the mappings in a full-screen editor
  roster import staff.xls --tui`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadImportConfig()
			if err != nil {
				return tenantHint(err)
			}

			path := config.ExpandPath(args[0])
			sheet, err := spreadsheet.ReadFile(path, spreadsheet.ReadOptions{SheetName: sheetName, MaxRows: cfg.MaxRows})
			if err != nil {
				return fmt.Errorf("%w: %w", common.ErrSourceRead, err)
			}

			return runImport(cmd, cfg, filepath.Base(path), sheet, opts)
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "worksheet to read (default: the active one)")
	opts.register(cmd)
	cmd.AddCommand(importSheetsCmd())

	return cmd
}

// runImport drives one import session from upload to commit.
func runImport(cmd *cobra.Command, cfg *config.ImportConfig, source string, sheet *spreadsheet.Sheet, opts importOptions) error {
	out := cmd.OutOrStdout()
	handler := cli.NewInterruptHandler(out)
	ctx := handler.HandleInterrupts(cmd.Context(), true)
	defer handler.Stop()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	classifier, err := mapping.NewClassifier(mapping.WithPositionalFallback(cfg.PositionalFallback))
	if err != nil {
		return err
	}

	bar := cli.NewProgressBar(out, len(sheet.Rows), "Transforming rows...")
	sessionCfg := importer.Config{
		Classifier:   classifier,
		Logger:       slog.Default(),
		Progress:     cli.ProgressReporter(bar),
		Transform:    cfg.TransformOptions(),
		Retry:        cfg.Retry,
		UseTemplates: !opts.noTemplates,
		MaxRows:      cfg.MaxRows,
	}
	if !opts.noCheckpoint {
		sessionCfg.BeforeCommit = checkpointHook(store)
	}

	session, err := importer.NewSession(store, cfg.Scope, sessionCfg)
	if err != nil {
		return err
	}

	if _, err := session.Upload(ctx, source, sheet); err != nil {
		return err
	}
	say(out, cli.FormatInfo(fmt.Sprintf("%s %s: %d rows, %d columns", cli.SheetIcon, source, len(sheet.Rows), len(sheet.Columns))))
	for _, w := range sheet.Warnings {
		say(out, cli.FormatWarning(w))
	}
	if session.FromTemplate() {
		say(out, cli.FormatInfo("Using the mappings saved for this header layout"))
	}

	if err := applyAssignments(session, opts); err != nil {
		return err
	}

	prompter := cli.NewPrompter(cmd.InOrStdin(), out)
	accepted, err := reviewMappings(ctx, cmd, session, prompter, opts)
	if err != nil {
		return err
	}
	if !accepted {
		say(out, cli.SubtleStyle.Render("Import cancelled."))
		return nil
	}

	if _, err := session.Preview(ctx); err != nil {
		return previewError(err)
	}

	table := session.Table()
	summary := session.Summary()
	say(out, cli.RenderPreview(table, opts.previewRows))
	say(out, cli.RenderSummary(summary, nil))

	if err := exportPreview(ctx, out, session, opts); err != nil {
		return err
	}

	if opts.dryRun {
		say(out, cli.FormatInfo("Dry run: nothing was saved."))
		return nil
	}
	if summary.Committable == 0 {
		say(out, cli.FormatWarning("No rows can be imported. Fix the errors above and try again."))
		return nil
	}

	if !opts.yes {
		ok, err := prompter.Confirm(ctx, fmt.Sprintf("Import %d employees?", summary.Committable))
		if err != nil {
			return err
		}
		if !ok {
			say(out, cli.SubtleStyle.Render("Import cancelled."))
			return nil
		}
	}

	run, err := session.Commit(ctx)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("import failed, no employees were saved: %w", err)
	}

	say(out, cli.RenderSummary(summary, run))
	return nil
}

func applyAssignments(session *importer.Session, opts importOptions) error {
	maps, err := parseAssignments(opts.maps)
	if err != nil {
		return err
	}
	for _, a := range maps {
		field, ok := mapping.ParseField(a[1])
		if !ok && a[1] != "" {
			return fmt.Errorf("unknown field %q for column %q; see 'roster fields'", a[1], a[0])
		}
		if err := session.Assign(a[0], field); err != nil {
			return fmt.Errorf("column %q: %w", a[0], err)
		}
	}

	customs, err := parseAssignments(opts.customs)
	if err != nil {
		return err
	}
	for _, a := range customs {
		if err := session.AssignCustom(a[0], a[1]); err != nil {
			return fmt.Errorf("column %q: %w", a[0], err)
		}
	}
	return nil
}

func reviewMappings(ctx context.Context, cmd *cobra.Command, session *importer.Session, prompter *cli.Prompter, opts importOptions) (bool, error) {
	switch {
	case opts.editor:
		return tui.EditMappings(ctx, session,
			tui.WithTheme(themes.ByName(viper.GetString("ui.theme"))),
			tui.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		)
	case opts.interactive:
		return prompter.ReviewMappings(ctx, session)
	default:
		say(cmd.OutOrStdout(), cli.RenderMappings(session.Mappings(), session.Unmapped()))
		return true, nil
	}
}

func previewError(err error) error {
	var verr *mapping.ValidationError
	if errors.As(err, &verr) {
		return common.NewUserError(verr.Message(), err)
	}
	return err
}

func exportPreview(ctx context.Context, out io.Writer, session *importer.Session, opts importOptions) error {
	rtl := true
	if viper.IsSet("export.right_to_left") {
		rtl = viper.GetBool("export.right_to_left")
	}

	if opts.exportPreview != "" {
		path := config.ExpandPath(opts.exportPreview)
		if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return fmt.Errorf("preview export must be an .xlsx file: %s", path)
		}
		f, err := os.Create(path) //nolint:gosec // user-chosen output path
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := spreadsheet.WritePreview(f, session.Table(), rtl); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		say(out, cli.FormatSuccess("Preview written to "+path))
	}

	if opts.exportSheets {
		id, err := writeSheetsPreview(ctx, session.Table())
		if err != nil {
			return err
		}
		say(out, cli.FormatSuccess("Preview written to https://docs.google.com/spreadsheets/d/"+id))
	}
	return nil
}

// checkpointHook snapshots the database right before employees are written.
func checkpointHook(store *storage.SQLiteStorage) func(context.Context) error {
	return func(ctx context.Context) error {
		manager, err := store.NewCheckpointManager()
		if errors.Is(err, storage.ErrInMemoryDatabase) {
			return nil
		}
		if err != nil {
			return err
		}
		info, err := manager.AutoCheckpoint(ctx, "import")
		if err != nil {
			return fmt.Errorf("failed to create checkpoint: %w", err)
		}
		slog.Info("Created checkpoint before import", "checkpoint", info.ID)
		return nil
	}
}

func say(w io.Writer, s string) {
	if _, err := fmt.Fprintln(w, s); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}
