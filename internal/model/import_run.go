package model

import "time"

// ImportRun records the outcome of one committed spreadsheet import.
type ImportRun struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	ID             string
	TenantID       string
	UserID         string
	Source         string
	Fingerprint    string
	TotalRows      int
	CreatedCount   int
	DuplicateCount int
	InvalidCount   int
}

// Duration returns how long the run took.
func (r ImportRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
