package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/roster/internal/cli"
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/service"
)

func employeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Browse imported employees",
	}

	cmd.AddCommand(listEmployeesCmd())
	cmd.AddCommand(showEmployeeCmd())

	return cmd
}

func listEmployeesCmd() *cobra.Command {
	var (
		branchName string
		typ        string
		filter     service.EmployeeFilter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Example: `  roster employees list --branch Haifa --type temporary
  roster employees list --search כהן`,
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

			if branchName != "" {
				branch, err := store.GetBranchByName(ctx, scope, branchName)
				if err != nil {
					return fmt.Errorf("failed to find branch: %w", err)
				}
				filter.BranchID = &branch.ID
			}
			if typ != "" {
				filter.Type = model.EmployeeType(strings.ToLower(typ))
				if !filter.Type.IsValid() {
					return fmt.Errorf("unknown employee type %q", typ)
				}
			}

			employees, err := store.GetEmployees(ctx, scope, filter)
			if err != nil {
				return err
			}
			total, err := store.CountEmployees(ctx, scope)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(employees) == 0 {
				say(out, cli.SubtitleStyle.Render("No employees found."))
				return nil
			}

			rows := make([][]string, 0, len(employees))
			for _, e := range employees {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.FullName(),
					e.Email,
					e.Phone,
					string(e.Type),
					formatHireDate(e),
				})
			}
			say(out, cli.RenderTable([]string{"ID", "Name", "Email", "Phone", "Type", "Hired"}, rows))
			say(out, cli.SubtleStyle.Render(fmt.Sprintf("%d of %d employees", len(employees), total)))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&branchName, "branch", "b", "", "only employees of this branch")
	f.StringVarP(&typ, "type", "t", "", "only employees of this type (permanent, temporary, youth, contractor)")
	f.StringVarP(&filter.Search, "search", "s", "", "match name, email or phone")
	f.IntVarP(&filter.Limit, "limit", "l", 50, "maximum employees to list")
	f.IntVar(&filter.Offset, "offset", 0, "employees to skip")

	return cmd
}

func showEmployeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one employee with custom fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid employee id %q", args[0])
			}

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

			e, err := store.GetEmployeeByID(ctx, scope, id)
			if err != nil {
				return err
			}

			lines := []string{
				"Email:        " + e.Email,
				"Phone:        " + e.Phone,
				"National ID:  " + e.NationalID,
				"Code:         " + e.EmployeeCode,
				"Type:         " + string(e.Type),
				"Hired:        " + formatHireDate(*e),
				"Address:      " + e.Address,
			}
			if e.WeeklyHours != nil {
				lines = append(lines, "Weekly hours: "+e.WeeklyHours.String())
			}
			if e.Notes != "" {
				lines = append(lines, "Notes:        "+e.Notes)
			}
			if len(e.CustomFields) > 0 {
				names := make([]string, 0, len(e.CustomFields))
				for name := range e.CustomFields {
					names = append(names, name)
				}
				sort.Strings(names)
				lines = append(lines, "")
				for _, name := range names {
					lines = append(lines, fmt.Sprintf("%s: %s", name, e.CustomFields[name]))
				}
			}

			say(cmd.OutOrStdout(), cli.RenderBox(e.FullName(), strings.Join(lines, "\n")))
			return nil
		},
	}
}

func formatHireDate(e model.Employee) string {
	if e.HireDate == nil {
		return ""
	}
	return e.HireDate.Format("02/01/2006")
}
