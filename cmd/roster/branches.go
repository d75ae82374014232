package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/roster/internal/cli"
)

func branchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "Manage the branches employees are assigned to",
		Long: `Manage the tenant's branches. Imported branch names are matched against
active branches, ignoring case and extra spaces.`,
	}

	cmd.AddCommand(listBranchesCmd())
	cmd.AddCommand(addBranchCmd())
	cmd.AddCommand(deactivateBranchCmd())

	return cmd
}

func listBranchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active branches",
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

			branches, err := store.GetBranches(ctx, scope)
			if err != nil {
				return err
			}
			if len(branches) == 0 {
				say(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No branches yet. Add one with 'roster branches add <name>'."))
				return nil
			}

			rows := make([][]string, 0, len(branches))
			for _, b := range branches {
				rows = append(rows, []string{fmt.Sprintf("%d", b.ID), b.Name, b.Address})
			}
			say(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Name", "Address"}, rows))
			return nil
		},
	}
}

func addBranchCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Add a branch",
		Example: `  roster branches add "תל אביב" --address "דיזנגוף 50"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			branch, err := store.CreateBranch(ctx, scope, strings.Join(args, " "), address)
			if err != nil {
				return fmt.Errorf("failed to add branch: %w", err)
			}
			say(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added branch %s (id %d)", branch.Name, branch.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "street address of the branch")
	return cmd
}

func deactivateBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <name>",
		Short: "Stop matching imported rows to a branch",
		Long:  `Deactivate a branch. Employees already assigned to it keep their assignment.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			branch, err := store.GetBranchByName(ctx, scope, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to find branch: %w", err)
			}
			if err := store.DeactivateBranch(ctx, scope, branch.ID); err != nil {
				return err
			}
			say(cmd.OutOrStdout(), cli.FormatSuccess("Deactivated branch "+branch.Name))
			return nil
		},
	}
}
