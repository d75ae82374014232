package mapping

import "strings"

// Assign moves column into the mapping for field, creating that mapping when
// needed. Mappings that lose their last column are dropped. The input slice is
// not modified.
func Assign(mappings []Mapping, column string, field FieldID) []Mapping {
	out := Unassign(mappings, column)
	if field == "" {
		return out
	}

	for i := range out {
		if out[i].TargetField == field {
			out[i].SourceColumns = append(out[i].SourceColumns, column)
			return out
		}
	}
	return append(out, NewMapping(field, column))
}

// AssignCustom maps column to a custom attribute. An empty name uses the column header.
func AssignCustom(mappings []Mapping, column, name string) []Mapping {
	if strings.TrimSpace(name) == "" {
		name = column
	}
	return Assign(mappings, column, CustomField(name))
}

// Unassign removes column from every mapping. Mappings that lose their last
// column are dropped; mappings that were already empty are kept as they are.
func Unassign(mappings []Mapping, column string) []Mapping {
	out := make([]Mapping, 0, len(mappings))
	for _, m := range mappings {
		m = m.Clone()
		if !contains(m.SourceColumns, column) {
			out = append(out, m)
			continue
		}

		kept := m.SourceColumns[:0]
		for _, col := range m.SourceColumns {
			if col != column {
				kept = append(kept, col)
			}
		}
		if len(kept) == 0 {
			continue
		}
		m.SourceColumns = kept
		out = append(out, m)
	}
	return out
}
