package mapping

import (
	"strings"

	"github.com/google/uuid"
)

// Mapping associates one or more spreadsheet columns with a target field.
// Values of several source columns are joined with a single space.
type Mapping struct {
	ID              string   `json:"id"`
	TargetField     FieldID  `json:"targetField"`
	CustomFieldName string   `json:"customFieldName,omitempty"`
	SourceColumns   []string `json:"sourceColumns"`
	IsCustomField   bool     `json:"isCustomField"`
}

// NewMapping creates a mapping of columns to a schema field with a fresh id.
func NewMapping(field FieldID, columns ...string) Mapping {
	if field.IsCustom() {
		return NewCustomMapping(field.CustomName(), columns...)
	}
	return Mapping{
		ID:            newID(),
		TargetField:   field,
		SourceColumns: append([]string{}, columns...),
	}
}

// NewCustomMapping creates a mapping of columns to a custom attribute.
func NewCustomMapping(name string, columns ...string) Mapping {
	name = strings.TrimSpace(name)
	return Mapping{
		ID:              newID(),
		TargetField:     CustomField(name),
		SourceColumns:   append([]string{}, columns...),
		IsCustomField:   true,
		CustomFieldName: name,
	}
}

// IsAssigned reports whether the mapping names a target field.
func (m Mapping) IsAssigned() bool {
	return m.TargetField != ""
}

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	m.SourceColumns = append([]string{}, m.SourceColumns...)
	return m
}

func newID() string {
	return "map_" + uuid.NewString()
}

// Aggregate classifies every column and groups matched columns per target field.
// Blank headers and unmatched columns are skipped. Mappings come out in
// catalogue order, columns in input order.
func (c *Classifier) Aggregate(columns []string) []Mapping {
	byField := make(map[FieldID][]string)
	for _, column := range columns {
		if strings.TrimSpace(column) == "" {
			continue
		}
		field, ok := c.Classify(column)
		if !ok {
			continue
		}
		if contains(byField[field], column) {
			continue
		}
		byField[field] = append(byField[field], column)
	}

	var mappings []Mapping
	for _, rule := range c.rules {
		cols, ok := byField[rule.Field]
		if !ok {
			continue
		}
		mappings = append(mappings, NewMapping(rule.Field, cols...))
	}
	return mappings
}

// Aggregate groups columns with the default classifier.
func Aggregate(columns []string) []Mapping {
	return defaultClassifier.Aggregate(columns)
}

// Confirmed returns the mappings that name a target field.
func Confirmed(mappings []Mapping) []Mapping {
	out := make([]Mapping, 0, len(mappings))
	for _, m := range mappings {
		if m.IsAssigned() {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Unmapped returns the non-blank columns no mapping references, in input order.
func Unmapped(columns []string, mappings []Mapping) []string {
	used := make(map[string]bool)
	for _, m := range mappings {
		for _, col := range m.SourceColumns {
			used[col] = true
		}
	}

	var out []string
	for _, col := range columns {
		if strings.TrimSpace(col) == "" || used[col] {
			continue
		}
		out = append(out, col)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
