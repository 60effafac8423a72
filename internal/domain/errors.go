package domain

import "errors"

var (
	// ErrMissingTenant is returned when a tenant-partitioned write is
	// attempted with no tenant bound to the context. Reads instead fail
	// closed with empty results.
	ErrMissingTenant = errors.New("no tenant bound to context")

	// ErrNotFound is returned when a record does not exist under the bound
	// tenant. A record owned by another tenant reports the same error, so
	// existence never leaks across tenants.
	ErrNotFound = errors.New("record not found")

	// ErrRelationshipViolation is returned when a write would link records
	// belonging to different tenants.
	ErrRelationshipViolation = errors.New("related records belong to different tenants")

	// ErrAlreadyExists is returned on a per-tenant uniqueness conflict.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrTenantInactive is returned when a request resolves to a tenant that
	// has been deactivated.
	ErrTenantInactive = errors.New("tenant is not active")

	// ErrTenantHasData blocks tenant deletion while partitioned rows remain.
	ErrTenantHasData = errors.New("tenant still owns records")
)
