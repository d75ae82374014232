package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/roster/internal/common"
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/service"
	"github.com/shopspring/decimal"
)

const hireDateLayout = "2006-01-02"

// CreateEmployees inserts employees and their custom fields in one transaction.
func (s *SQLiteStorage) CreateEmployees(ctx context.Context, scope model.Scope, employees []model.Employee) (int, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return 0, common.Permanent(err)
	}
	for i := range employees {
		if err := validateEmployee(scope, &employees[i]); err != nil {
			return 0, common.Permanent(fmt.Errorf("employee at index %d: %w", i, err))
		}
	}
	if len(employees) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	empStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO employees (
			tenant_id, first_name, last_name, email, phone, national_id,
			email_key, phone_key, national_id_key, employee_code, address, notes,
			hire_date, employee_type, weekly_hours, branch_id, import_run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare employee insert: %w", err)
	}
	defer func() { _ = empStmt.Close() }()

	fieldStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO employee_custom_fields (employee_id, name, value) VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare custom field insert: %w", err)
	}
	defer func() { _ = fieldStmt.Close() }()

	for i, emp := range employees {
		key := emp.Key().Normalized()
		result, err := empStmt.ExecContext(ctx,
			scope.TenantID,
			strings.TrimSpace(emp.FirstName),
			strings.TrimSpace(emp.LastName),
			strings.TrimSpace(emp.Email),
			strings.TrimSpace(emp.Phone),
			strings.TrimSpace(emp.NationalID),
			key.Email,
			key.Phone,
			key.NationalID,
			emp.EmployeeCode,
			emp.Address,
			emp.Notes,
			formatDate(emp.HireDate),
			string(emp.Type),
			formatDecimal(emp.WeeklyHours),
			emp.BranchID,
			emp.ImportRunID,
		)
		if err != nil {
			return 0, classify(err, fmt.Sprintf("failed to insert employee at index %d", i))
		}

		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get employee ID: %w", err)
		}
		for name, value := range emp.CustomFields {
			if _, err := fieldStmt.ExecContext(ctx, id, name, value); err != nil {
				return 0, classify(err, fmt.Sprintf("failed to insert custom field %q", name))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit employees: %w", err)
	}
	return len(employees), nil
}

// GetEmployeeKeys returns the natural keys of every employee of the tenant.
func (s *SQLiteStorage) GetEmployeeKeys(ctx context.Context, scope model.Scope) ([]model.NaturalKey, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT email_key, phone_key, national_id_key FROM employees WHERE tenant_id = ?
	`, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []model.NaturalKey
	for rows.Next() {
		var k model.NaturalKey
		if err := rows.Scan(&k.Email, &k.Phone, &k.NationalID); err != nil {
			return nil, fmt.Errorf("failed to scan employee key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

const employeeColumns = `
	id, tenant_id, first_name, last_name, email, phone, national_id,
	employee_code, address, notes, hire_date, employee_type, weekly_hours,
	branch_id, import_run_id, created_at`

// GetEmployees lists the tenant's employees ordered by name.
func (s *SQLiteStorage) GetEmployees(ctx context.Context, scope model.Scope, filter service.EmployeeFilter) ([]model.Employee, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = ?`
	args := []any{scope.TenantID}

	if filter.BranchID != nil {
		query += ` AND branch_id = ?`
		args = append(args, *filter.BranchID)
	}
	if filter.Type != "" {
		query += ` AND employee_type = ?`
		args = append(args, string(filter.Type))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query += ` AND (lower(first_name || ' ' || last_name) LIKE ? OR email_key LIKE ? OR phone_key LIKE ?)`
		args = append(args, like, like, like)
	}

	query += ` ORDER BY last_name, first_name, id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var employees []model.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	for i := range employees {
		fields, err := s.customFields(ctx, employees[i].ID)
		if err != nil {
			return nil, err
		}
		employees[i].CustomFields = fields
	}
	return employees, nil
}

// GetEmployeeByID returns one employee of the tenant.
func (s *SQLiteStorage) GetEmployeeByID(ctx context.Context, scope model.Scope, id int64) (*model.Employee, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE tenant_id = ? AND id = ?`,
		scope.TenantID, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	emp.CustomFields, err = s.customFields(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// CountEmployees returns the number of employees of the tenant.
func (s *SQLiteStorage) CountEmployees(ctx context.Context, scope model.Scope) (int, error) {
	if err := validateRequest(ctx, scope); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE tenant_id = ?`, scope.TenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) customFields(ctx context.Context, employeeID int64) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value FROM employee_custom_fields WHERE employee_id = ? ORDER BY name
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields map[string]string
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan custom field: %w", err)
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[name] = value
	}
	return fields, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (*model.Employee, error) {
	var (
		emp      model.Employee
		hireDate sql.NullString
		hours    sql.NullString
		branchID sql.NullInt64
		empType  string
	)
	err := row.Scan(
		&emp.ID, &emp.TenantID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Phone, &emp.NationalID,
		&emp.EmployeeCode, &emp.Address, &emp.Notes, &hireDate, &empType, &hours,
		&branchID, &emp.ImportRunID, &emp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}

	emp.Type = model.EmployeeType(empType)
	if hireDate.Valid && hireDate.String != "" {
		if t, err := time.Parse(hireDateLayout, hireDate.String); err == nil {
			emp.HireDate = &t
		}
	}
	if hours.Valid && hours.String != "" {
		if d, err := decimal.NewFromString(hours.String); err == nil {
			emp.WeeklyHours = &d
		}
	}
	if branchID.Valid {
		id := branchID.Int64
		emp.BranchID = &id
	}
	return &emp, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(hireDateLayout)
}

func formatDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
