package tenant

import "errors"

var (
	// ErrInvalidTenantIdentifier is returned for malformed or reserved
	// tenant identifiers, before any registry lookup happens.
	ErrInvalidTenantIdentifier = errors.New("invalid tenant identifier")

	// ErrTenantNotFound is returned when no active tenant matches the
	// given identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantExists is returned when a registration collides with an
	// existing slug.
	ErrTenantExists = errors.New("tenant already exists")

	// ErrScopeNotProvisioned is returned when handles are requested for a
	// scope whose physical schema does not exist.
	ErrScopeNotProvisioned = errors.New("tenant scope not provisioned")
)
