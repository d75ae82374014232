package mapping

import "time"

// Template is a confirmed mapping set remembered for a header fingerprint.
type Template struct {
	UpdatedAt   time.Time
	Fingerprint string
	Columns     []string
	Mappings    []Mapping
	UseCount    int
}

// NewTemplate captures the assigned mappings of an import of columns.
func NewTemplate(columns []string, mappings []Mapping) Template {
	return Template{
		Fingerprint: Fingerprint(columns),
		Columns:     append([]string{}, columns...),
		Mappings:    Confirmed(mappings),
	}
}

// Applies reports whether every source column of the template exists in columns.
func (t Template) Applies(columns []string) bool {
	if len(t.Mappings) == 0 {
		return false
	}
	for _, m := range t.Mappings {
		for _, col := range m.SourceColumns {
			if !contains(columns, col) {
				return false
			}
		}
	}
	return true
}

// Instantiate returns copies of the template mappings with fresh ids.
func (t Template) Instantiate() []Mapping {
	out := make([]Mapping, 0, len(t.Mappings))
	for _, m := range t.Mappings {
		c := m.Clone()
		c.ID = newID()
		out = append(out, c)
	}
	return out
}
