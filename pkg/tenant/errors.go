package tenant

import "errors"

var (
	// ErrUnauthenticated is returned when no resolver can establish a tenant id.
	ErrUnauthenticated = errors.New("tenant: no tenant identity in request")

	// ErrTenantNotFound is returned when a tenant record cannot be found.
	ErrTenantNotFound = errors.New("tenant: tenant not found")

	// ErrTenantInactive is returned when the tenant record exists but its
	// status is not active.
	ErrTenantInactive = errors.New("tenant: tenant is not active")

	// ErrNoContext is returned when no tenant context is present in the
	// request context.
	ErrNoContext = errors.New("tenant: no tenant context")
)
