package transform

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/Veraticus/roster/internal/mapping"
	"github.com/Veraticus/roster/internal/model"
)

// Options tune field coercion.
type Options struct {
	DefaultType model.EmployeeType
	TenantID    string
	DateFormats []string
}

// DefaultOptions returns the coercion settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		DateFormats: DefaultDateFormats(),
		DefaultType: model.EmployeeTypePermanent,
	}
}

// Transformer applies a validated mapping set to spreadsheet rows.
// Transforming a row depends only on that row and the reference data.
type Transformer struct {
	ref      *ReferenceData
	mappings []mapping.Mapping
	opts     Options
}

// New validates mappings and returns a transformer for them.
// Target-less mappings are dropped.
func New(mappings []mapping.Mapping, ref *ReferenceData, opts Options) (*Transformer, error) {
	if err := mapping.Validate(mappings); err != nil {
		return nil, err
	}
	if len(opts.DateFormats) == 0 {
		opts.DateFormats = DefaultDateFormats()
	}
	if !opts.DefaultType.IsValid() {
		opts.DefaultType = model.EmployeeTypePermanent
	}
	if ref == nil {
		ref = NewReferenceData(nil, nil)
	}

	return &Transformer{
		mappings: mapping.Confirmed(mappings),
		ref:      ref,
		opts:     opts,
	}, nil
}

// Transform builds the preview record of one row.
func (t *Transformer) Transform(rowIndex int, row map[string]string) PreviewRecord {
	rec := PreviewRecord{
		RowIndex:     rowIndex,
		Fields:       make(map[mapping.FieldID]string),
		CustomFields: make(map[string]string),
		Employee: model.Employee{
			TenantID: t.opts.TenantID,
			Type:     t.opts.DefaultType,
		},
	}

	for _, m := range t.mappings {
		value := combine(row, m.SourceColumns)
		if m.IsCustomField || m.TargetField.IsCustom() {
			if value != "" {
				rec.CustomFields[m.TargetField.CustomName()] = value
			}
			continue
		}
		t.apply(&rec, m.TargetField, value)
	}

	if len(rec.CustomFields) > 0 {
		rec.Employee.CustomFields = rec.CustomFields
	}

	splitFullName(&rec)
	checkRequired(&rec)

	if field, dup := t.ref.Match(rec.Employee.Key()); dup {
		rec.addIssue(IssueDuplicateRecord, keyField(field),
			fmt.Sprintf("an employee with this %s already exists", field))
	}

	return rec
}

// TransformAll transforms every row and flags rows repeating the natural key
// of an earlier row in the same batch. Row indexes are 1-based data row numbers.
func (t *Transformer) TransformAll(rows []map[string]string) []PreviewRecord {
	records := make([]PreviewRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, t.Transform(i+1, row))
	}
	MarkBatchDuplicates(records)
	return records
}

// MarkBatchDuplicates flags records whose natural key repeats one of an earlier
// committable record of the same batch. Records already flagged are left
// untouched and invalid records never claim a key.
func MarkBatchDuplicates(records []PreviewRecord) {
	seen := NewReferenceData(nil, nil)
	first := make(map[string]int)

	for i := range records {
		rec := &records[i]
		key := rec.Employee.Key()
		if key.IsEmpty() {
			continue
		}
		if !rec.IsDuplicate {
			if field, dup := seen.Match(key); dup {
				rec.addIssue(IssueDuplicateRecord, keyField(field),
					fmt.Sprintf("same %s as row %d", field, first[field+":"+keyValue(key, field)]))
			}
		}

		if !rec.Committable() {
			continue
		}
		n := key.Normalized()
		for _, field := range []string{"email", "phone", "national ID"} {
			if v := keyValue(n, field); v != "" {
				if _, ok := first[field+":"+v]; !ok {
					first[field+":"+v] = rec.RowIndex
				}
			}
		}
		seen.add(n)
	}
}

func (t *Transformer) apply(rec *PreviewRecord, field mapping.FieldID, value string) {
	if value == "" {
		return
	}
	emp := &rec.Employee

	switch field {
	case mapping.FieldFirstName:
		emp.FirstName = value
	case mapping.FieldLastName:
		emp.LastName = value
	case mapping.FieldFullName:
		// Split later, once explicit name columns have been applied.
	case mapping.FieldEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil {
			rec.addIssue(IssueRowCoercion, field, fmt.Sprintf("invalid email %q", value))
			emp.Email = value
			break
		}
		value = addr.Address
		emp.Email = value
	case mapping.FieldPhone:
		emp.Phone = value
	case mapping.FieldNationalID:
		emp.NationalID = value
	case mapping.FieldEmployeeCode:
		emp.EmployeeCode = value
	case mapping.FieldAddress:
		emp.Address = value
	case mapping.FieldNotes:
		emp.Notes = value
	case mapping.FieldHireDate:
		d, err := ParseDate(value, t.opts.DateFormats)
		if err != nil {
			rec.addIssue(IssueRowCoercion, field, fmt.Sprintf("invalid hire date %q", value))
			rec.Fields[field] = value
			return
		}
		emp.HireDate = &d
		value = d.Format(DateLayout)
	case mapping.FieldEmployeeType:
		emp.Type = NormalizeEmployeeType(value, t.opts.DefaultType)
		value = string(emp.Type)
	case mapping.FieldWeeklyHours:
		hours, ok := ParseDecimal(value)
		if !ok {
			return
		}
		emp.WeeklyHours = &hours
		value = hours.String()
	case mapping.FieldBranchName:
		id, ok := t.ref.BranchID(value)
		if !ok {
			rec.addIssue(IssueRowCoercion, field, fmt.Sprintf("unknown branch %q", value))
			break
		}
		emp.BranchID = &id
	}

	rec.Fields[field] = value
}

// combine joins the non-empty values of columns with single spaces.
func combine(row map[string]string, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		if v := strings.TrimSpace(row[col]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func splitFullName(rec *PreviewRecord) {
	full, ok := rec.Fields[mapping.FieldFullName]
	if !ok {
		return
	}
	emp := &rec.Employee
	if emp.FirstName != "" && emp.LastName != "" {
		return
	}

	parts := strings.Fields(full)
	if len(parts) == 0 {
		return
	}
	if emp.FirstName == "" {
		emp.FirstName = parts[0]
		parts = parts[1:]
	}
	if emp.LastName == "" && len(parts) > 0 {
		emp.LastName = strings.Join(parts, " ")
	}
}

func checkRequired(rec *PreviewRecord) {
	if rec.Employee.FirstName == "" {
		rec.addIssue(IssueRequiredFieldMissing, mapping.FieldFirstName, "missing first name")
	}
	if rec.Employee.LastName == "" {
		rec.addIssue(IssueRequiredFieldMissing, mapping.FieldLastName, "missing last name")
	}
}

func keyField(name string) mapping.FieldID {
	switch name {
	case "email":
		return mapping.FieldEmail
	case "phone":
		return mapping.FieldPhone
	default:
		return mapping.FieldNationalID
	}
}

func keyValue(k model.NaturalKey, field string) string {
	n := k.Normalized()
	switch field {
	case "email":
		return n.Email
	case "phone":
		return n.Phone
	default:
		return n.NationalID
	}
}
