package model

import (
	"strings"
	"time"
)

// Branch is a physical work location that employees are assigned to.
type Branch struct {
	CreatedAt time.Time
	TenantID  string
	Name      string
	Address   string
	ID        int64
	IsActive  bool
}

// NormalizeBranchName returns the comparison form of a branch name:
// lower case with runs of whitespace collapsed.
func NormalizeBranchName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
