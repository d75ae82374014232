// Package mapping detects which employee fields spreadsheet columns hold and
// validates the resulting column-to-field mappings.
package mapping

import "strings"

// FieldID names a canonical employee-record field.
type FieldID string

// Known target fields, in catalogue order.
const (
	FieldFirstName    FieldID = "first_name"
	FieldLastName     FieldID = "last_name"
	FieldFullName     FieldID = "full_name"
	FieldEmail        FieldID = "email"
	FieldPhone        FieldID = "phone"
	FieldNationalID   FieldID = "national_id"
	FieldEmployeeCode FieldID = "employee_code"
	FieldAddress      FieldID = "address"
	FieldHireDate     FieldID = "hire_date"
	FieldEmployeeType FieldID = "employee_type"
	FieldWeeklyHours  FieldID = "weekly_hours"
	FieldBranchName   FieldID = "branch_name"
	FieldNotes        FieldID = "notes"
)

const customPrefix = "custom:"

// CustomField returns the field id under which a custom attribute is mapped.
func CustomField(name string) FieldID {
	return FieldID(customPrefix + strings.TrimSpace(name))
}

// IsCustom reports whether f names a custom attribute.
func (f FieldID) IsCustom() bool {
	return strings.HasPrefix(string(f), customPrefix)
}

// CustomName returns the attribute name of a custom field, or "" for schema fields.
func (f FieldID) CustomName() string {
	if !f.IsCustom() {
		return ""
	}
	return strings.TrimPrefix(string(f), customPrefix)
}

// Label returns the display label of f.
func (f FieldID) Label() string {
	if f.IsCustom() {
		return f.CustomName() + " (custom)"
	}
	for _, rule := range DefaultRules() {
		if rule.Field == f {
			return rule.Label
		}
	}
	return string(f)
}

// Fields returns every schema field in catalogue order.
func Fields() []FieldID {
	rules := DefaultRules()
	fields := make([]FieldID, 0, len(rules))
	for _, rule := range rules {
		fields = append(fields, rule.Field)
	}
	return fields
}

// ParseField resolves a field id or display label, case-insensitively.
// Values prefixed with "custom:" resolve to custom fields.
func ParseField(s string) (FieldID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(s), customPrefix) {
		name := strings.TrimSpace(s[len(customPrefix):])
		if name == "" {
			return "", false
		}
		return CustomField(name), true
	}
	for _, rule := range DefaultRules() {
		if strings.EqualFold(string(rule.Field), s) || strings.EqualFold(rule.Label, s) {
			return rule.Field, true
		}
	}
	return "", false
}
