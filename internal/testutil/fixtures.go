package testutil

import (
	"github.com/Veraticus/roster/internal/model"
	"github.com/Veraticus/roster/internal/spreadsheet"
)

// Branch names used across tests.
const (
	BranchTelAviv   = "תל אביב"
	BranchHaifa     = "Haifa"
	BranchJerusalem = "ירושלים"
)

// Employee returns a valid permanent employee.
func Employee(first, last, email string) model.Employee {
	return model.Employee{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Type:      model.EmployeeTypePermanent,
	}
}

// SheetBuilder assembles an uploaded sheet row by row.
type SheetBuilder struct {
	name    string
	records [][]string
}

// NewSheet starts a sheet with the given header row.
func NewSheet(columns ...string) *SheetBuilder {
	return &SheetBuilder{
		name:    "Sheet1",
		records: [][]string{append([]string{}, columns...)},
	}
}

// Named sets the sheet name.
func (b *SheetBuilder) Named(name string) *SheetBuilder {
	b.name = name
	return b
}

// Row appends a data row.
func (b *SheetBuilder) Row(cells ...string) *SheetBuilder {
	b.records = append(b.records, append([]string{}, cells...))
	return b
}

// Records returns the raw records including the header.
func (b *SheetBuilder) Records() [][]string {
	out := make([][]string, len(b.records))
	for i, r := range b.records {
		out[i] = append([]string{}, r...)
	}
	return out
}

// Build parses the records the way an uploaded file is parsed.
func (b *SheetBuilder) Build() *spreadsheet.Sheet {
	sheet, err := spreadsheet.FromRecords(b.name, b.Records())
	if err != nil {
		panic(err)
	}
	return sheet
}

// HebrewStaffSheet is a typical export from a Hebrew payroll system.
func HebrewStaffSheet() *SheetBuilder {
	return NewSheet("שם פרטי", "שם משפחה", "דוא\"ל", "טלפון נייד", "ת.ז.", "תאריך תחילת עבודה", "סוג עובד", "סניף", "שעות שבועיות").
		Row("דנה", "כהן", "dana@example.com", "052-1234567", "012345678", "15/03/2023", "קבוע", BranchTelAviv, "40").
		Row("אבי", "לוי", "avi@example.com", "054-7654321", "023456789", "01.09.2022", "זמני", BranchHaifa, "20,5").
		Row("נועה", "פרץ", "", "", "", "", "", "", "")
}
