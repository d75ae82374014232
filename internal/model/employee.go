// Package model defines the core entities shared across the roster packages.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeType indicates the employment arrangement of an employee.
type EmployeeType string

const (
	// EmployeeTypePermanent is a regular, salaried or hourly employee. It is the baseline type.
	EmployeeTypePermanent EmployeeType = "permanent"
	// EmployeeTypeTemporary is a seasonal or fixed-term employee.
	EmployeeTypeTemporary EmployeeType = "temporary"
	// EmployeeTypeYouth is a minor employed under youth labor rules.
	EmployeeTypeYouth EmployeeType = "youth"
	// EmployeeTypeContractor is an external worker billed by invoice.
	EmployeeTypeContractor EmployeeType = "contractor"
)

// EmployeeTypes lists every known employee type in display order.
func EmployeeTypes() []EmployeeType {
	return []EmployeeType{
		EmployeeTypePermanent,
		EmployeeTypeTemporary,
		EmployeeTypeYouth,
		EmployeeTypeContractor,
	}
}

// IsValid reports whether t is one of the known employee types.
func (t EmployeeType) IsValid() bool {
	for _, known := range EmployeeTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Employee represents a single employee record of a tenant.
type Employee struct {
	CreatedAt    time.Time
	HireDate     *time.Time
	WeeklyHours  *decimal.Decimal
	BranchID     *int64
	CustomFields map[string]string
	TenantID     string
	ImportRunID  string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	NationalID   string
	EmployeeCode string
	Address      string
	Notes        string
	Type         EmployeeType
	ID           int64
}

// FullName returns the given and family names joined by a space.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Key returns the natural key of the employee.
func (e Employee) Key() NaturalKey {
	return NaturalKey{
		Email:      e.Email,
		Phone:      e.Phone,
		NationalID: e.NationalID,
	}
}
