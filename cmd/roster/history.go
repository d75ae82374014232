package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/roster/internal/cli"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent imports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			scope, err := loadScope()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.GetImportRuns(ctx, scope, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				say(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No imports yet."))
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					formatRelativeTime(r.StartedAt, now),
					r.Source,
					r.UserID,
					strconv.Itoa(r.TotalRows),
					strconv.Itoa(r.CreatedCount),
					strconv.Itoa(r.DuplicateCount),
					strconv.Itoa(r.InvalidCount),
					r.Duration().Round(time.Millisecond).String(),
				})
			}
			say(cmd.OutOrStdout(), cli.RenderTable(
				[]string{"When", "Source", "User", "Rows", "Created", "Duplicates", "Invalid", "Took"}, rows))
			say(cmd.OutOrStdout(), cli.SubtleStyle.Render(fmt.Sprintf("%d imports", len(runs))))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of imports to show (0 for all)")
	return cmd
}
