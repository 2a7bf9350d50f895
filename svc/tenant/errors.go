package tenantsvc

import "errors"

var (
	// ErrMissingFields is returned when onboarding input lacks the company
	// name or the admin email.
	ErrMissingFields = errors.New("tenantsvc: company_name and admin_email are required")
	// ErrInvalidTier is returned for an isolation tier override that is not
	// pool, bridge, or silo.
	ErrInvalidTier = errors.New("tenantsvc: invalid isolation tier")
	// ErrAccessDenied is returned when a request addresses a tenant other
	// than the one it is authenticated for.
	ErrAccessDenied = errors.New("tenantsvc: access to this tenant is denied")
	// ErrInvalidStatus is returned for a status update outside the
	// active/suspended pair; deletion goes through Delete.
	ErrInvalidStatus = errors.New("tenantsvc: status must be active or suspended")
)
