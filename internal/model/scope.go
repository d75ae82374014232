package model

import (
	"errors"
	"strings"
)

// ErrMissingTenant is returned when a scope carries no tenant.
var ErrMissingTenant = errors.New("tenant is required")

// Scope identifies the tenant and actor a request runs on behalf of.
// Every collaborator call receives it explicitly.
type Scope struct {
	TenantID string
	UserID   string
}

// Validate ensures the scope names a tenant.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.TenantID) == "" {
		return ErrMissingTenant
	}
	return nil
}
