package transform

// Summary counts preview records by status.
type Summary struct {
	Total       int
	Valid       int
	Invalid     int
	Duplicates  int
	Committable int
}

// Summarize counts records. A record can be both invalid and a duplicate.
func Summarize(records []PreviewRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if r.IsValid() {
			s.Valid++
		} else {
			s.Invalid++
		}
		if r.IsDuplicate {
			s.Duplicates++
		}
		if r.Committable() {
			s.Committable++
		}
	}
	return s
}
