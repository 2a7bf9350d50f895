package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
	"github.com/dmitrymomot/tenantkit/pkg/limits"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// ErrorFrom renders a domain error with the right status code. Errors it
// does not recognize become a plain 500 with no entity-specific detail, so
// storage topology never leaks to clients.
func ErrorFrom(w http.ResponseWriter, err error) {
	var limitErr *limits.LimitExceededError

	switch {
	case errors.Is(err, tenant.ErrUnauthenticated), errors.Is(err, tenant.ErrNoContext):
		Error(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, tenant.ErrTenantNotFound):
		Error(w, http.StatusNotFound, "Tenant not found", "")
	case errors.Is(err, tenant.ErrTenantInactive):
		Error(w, http.StatusForbidden, "Tenant is not active", "")
	case errors.Is(err, isolation.ErrUnknownTier), errors.Is(err, isolation.ErrUnroutableTenantID):
		Error(w, http.StatusBadRequest, "Invalid tenant configuration", "")
	case errors.Is(err, limits.ErrUnknownResource):
		Error(w, http.StatusBadRequest, "Unknown resource kind", "")
	case errors.As(err, &limitErr):
		Error(w, http.StatusForbidden,
			fmt.Sprintf("%s limit reached for your subscription tier", limitErr.Resource),
			fmt.Sprintf("current_count=%d", limitErr.Current))
	default:
		Error(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
