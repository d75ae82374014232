// Package transform turns spreadsheet rows into candidate employee records
// according to a confirmed set of column mappings.
package transform

import (
	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
)

// IssueKind classifies a problem found in a single row.
type IssueKind string

const (
	// IssueRowCoercion means a value could not be converted to the field's type
	// or reference (date, email, branch).
	IssueRowCoercion IssueKind = "row_coercion"
	// IssueRequiredFieldMissing means a mandatory identity field is empty.
	IssueRequiredFieldMissing IssueKind = "required_field_missing"
	// IssueDuplicateRecord means a natural key matches an existing or earlier record.
	IssueDuplicateRecord IssueKind = "duplicate_record"
)

// Issue is a row-level problem. Issues never abort a batch.
type Issue struct {
	Kind    IssueKind
	Field   mapping.FieldID
	Message string
}

// Blocking reports whether the issue makes the record invalid.
// Duplicates are informational: the record is valid but is not committed.
func (i Issue) Blocking() bool {
	return i.Kind != IssueDuplicateRecord
}

// PreviewRecord is the materialised result of applying mappings to one row.
type PreviewRecord struct {
	Fields       map[mapping.FieldID]string
	CustomFields map[string]string
	Employee     model.Employee
	Errors       []string
	Issues       []Issue
	RowIndex     int
	IsDuplicate  bool
}

// IsValid reports whether the record has no blocking issues.
func (r PreviewRecord) IsValid() bool {
	for _, issue := range r.Issues {
		if issue.Blocking() {
			return false
		}
	}
	return true
}

// Committable reports whether the record may be persisted.
func (r PreviewRecord) Committable() bool {
	return r.IsValid() && !r.IsDuplicate
}

// Status returns a short label for the preview grid.
func (r PreviewRecord) Status() string {
	switch {
	case !r.IsValid():
		return "invalid"
	case r.IsDuplicate:
		return "duplicate"
	default:
		return "ok"
	}
}

func (r *PreviewRecord) addIssue(kind IssueKind, field mapping.FieldID, message string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Field: field, Message: message})
	r.Errors = append(r.Errors, message)
	if kind == IssueDuplicateRecord {
		r.IsDuplicate = true
	}
}

// Committable returns the employees of all committable records, in row order.
func Committable(records []PreviewRecord) []model.Employee {
	var out []model.Employee
	for _, r := range records {
		if r.Committable() {
			out = append(out, r.Employee)
		}
	}
	return out
}
