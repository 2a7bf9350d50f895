// Package limits decides whether a tenant may create another resource
// instance, based on the caps stored on its tenant record.
//
// The check is deliberately check-then-act: the caller counts existing
// resources, asks AllowCreate, then writes. Two concurrent creations racing
// for the last slot can both pass, leaving the tenant transiently one over
// quota; the next request re-checks against the new count and is rejected.
// Enforcement is eventually consistent, not strict.
package limits

import (
	"context"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Resource is a countable tenant resource kind. Values match the keys of
// the limits mapping on the tenant record.
type Resource string

const (
	ResourceProducts Resource = "max_products"
	ResourceOrders   Resource = "max_orders"
	ResourceUsers    Resource = "max_users"
	ResourceAPICalls Resource = "max_api_calls_per_hour"
)

// Unlimited marks a resource with no cap.
const Unlimited int64 = -1

// Enforcer checks resource caps against tenant records.
type Enforcer struct {
	tenants tenant.Provider
}

// NewEnforcer creates an Enforcer reading tenant records from the given
// provider.
func NewEnforcer(tenants tenant.Provider) *Enforcer {
	return &Enforcer{tenants: tenants}
}

// AllowCreate reports whether the tenant may create one more instance of
// the resource given the count the caller just read.
//
// Returns tenant.ErrTenantNotFound when no record exists,
// tenant.ErrTenantInactive when the tenant is suspended or deleted,
// ErrUnknownResource when the record carries no cap for the resource, and
// a LimitExceededError carrying the current usage when the cap is reached.
func (e *Enforcer) AllowCreate(ctx context.Context, tc tenant.Context, res Resource, currentCount int64) error {
	record, err := e.tenants.GetByID(ctx, tc.TenantID)
	if err != nil {
		return err
	}
	if !record.Active() {
		return tenant.ErrTenantInactive
	}

	limit, ok := record.Limits[string(res)]
	if !ok {
		return ErrUnknownResource
	}
	if !Allowed(limit, currentCount) {
		return &LimitExceededError{Resource: res, Limit: limit, Current: currentCount}
	}
	return nil
}

// Allowed is the pure limit rule: a cap of Unlimited always allows,
// otherwise creation is allowed iff the current count is below the cap.
func Allowed(limit, current int64) bool {
	if limit == Unlimited {
		return true
	}
	return current < limit
}
