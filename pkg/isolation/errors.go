package isolation

import "errors"

var (
	// ErrUnknownTier is returned when a tenant context carries a tier
	// outside pool, bridge, and silo.
	ErrUnknownTier = errors.New("isolation: unknown tenant tier")

	// ErrUnroutableTenantID is returned when a tenant id cannot be turned
	// into a safe schema or database identifier.
	ErrUnroutableTenantID = errors.New("isolation: tenant id is not a routable identifier")
)
