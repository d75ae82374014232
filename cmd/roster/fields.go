package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/roster/internal/cli"
	"github.com/Veraticus/roster/internal/config"
	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/spreadsheet"
)

func fieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List importable fields and their detection rules",
		Long: `List the employee fields columns can be mapped to, with the header
patterns that detect them. Rules are tried in order and the first match wins.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			classifier, err := newClassifier()
			if err != nil {
				return err
			}
			say(cmd.OutOrStdout(), cli.RenderRules(classifier.Rules()))
			return nil
		},
	}

	cmd.AddCommand(detectCmd())
	return cmd
}

func detectCmd() *cobra.Command {
	var file, sheetName string

	cmd := &cobra.Command{
		Use:   "detect [header...]",
		Short: "Show which field headers are detected as",
		Example: `  roster fields detect "שם פרטי" "Mobile phone" "ת.ז."
  roster fields detect --file staff.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			classifier, err := newClassifier()
			if err != nil {
				return err
			}

			if file != "" {
				sheet, err := spreadsheet.ReadFile(config.ExpandPath(file), spreadsheet.ReadOptions{SheetName: sheetName, MaxRows: 1})
				if err != nil {
					return err
				}
				mappings := classifier.Aggregate(sheet.Columns)
				say(out, cli.RenderMappings(mappings, mapping.Unmapped(sheet.Columns, mappings)))
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("give headers to classify or --file")
			}
			rows := make([][]string, 0, len(args))
			for _, header := range args {
				label := "-"
				if field, ok := classifier.Classify(header); ok {
					label = field.Label()
				}
				rows = append(rows, []string{header, label})
			}
			say(out, cli.RenderTable([]string{"Header", "Field"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "classify the header row of a spreadsheet")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "worksheet to read")
	return cmd
}

func newClassifier() (*mapping.Classifier, error) {
	fallback := true
	if viper.IsSet("import.positional_fallback") {
		fallback = viper.GetBool("import.positional_fallback")
	}
	return mapping.NewClassifier(mapping.WithPositionalFallback(fallback))
}
