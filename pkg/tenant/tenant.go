package tenant

import (
	"context"
	"time"
)

// Tier identifies the isolation model a tenant is placed on.
type Tier string

const (
	// TierPool shares one physical store across tenants; every query
	// carries a tenant_id row filter.
	TierPool Tier = "pool"
	// TierBridge shares one store but gives each tenant its own schema.
	TierBridge Tier = "bridge"
	// TierSilo gives each tenant a dedicated physical store.
	TierSilo Tier = "silo"
)

// Valid reports whether the tier is one of the three known isolation models.
func (t Tier) Valid() bool {
	switch t {
	case TierPool, TierBridge, TierSilo:
		return true
	}
	return false
}

// Context is the per-request tenant identity. It is constructed once by a
// Resolver and never mutated; it carries no storage resources of its own.
type Context struct {
	TenantID string `json:"tenant_id"`
	Tier     Tier   `json:"tenant_tier"`
	UserID   string `json:"user_id,omitempty"` // acting user, empty for machine callers
}

// Status is the lifecycle state of a tenant record.
type Status string

const (
	StatusProvisioning Status = "provisioning"
	StatusActive       Status = "active"
	StatusSuspended    Status = "suspended"
	StatusDeleted      Status = "deleted"
)

// Tenant is the persistent tenant record created at onboarding. It is owned
// by the tenant management service; the limits enforcer only reads it.
type Tenant struct {
	ID            string           `json:"tenant_id"`
	CompanyName   string           `json:"company_name"`
	AdminEmail    string           `json:"admin_email"`
	Plan          string           `json:"tier"`            // subscription plan: basic, premium, enterprise
	IsolationTier Tier             `json:"isolation_model"` // derived from Plan unless set explicitly
	Status        Status           `json:"status"`
	Limits        map[string]int64 `json:"limits"`   // resource kind -> cap, -1 means unlimited
	Features      map[string]bool  `json:"features"` // feature name -> enabled
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     *time.Time       `json:"deleted_at,omitempty"`
}

// Active reports whether the tenant may issue requests.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// Provider loads tenant records from a data source.
type Provider interface {
	// GetByID retrieves a tenant record by its identifier.
	// Returns ErrTenantNotFound if no tenant matches.
	GetByID(ctx context.Context, tenantID string) (*Tenant, error)
}
