// Package user implements tenant-scoped user management. Users live in the
// same tier-routed storage as the rest of the tenant's data; credential
// issuance is handled upstream by the identity provider and is out of scope
// here.
package user

import (
	"errors"
	"time"
)

// User statuses. Deletion is soft: the row stays, status flips to deleted.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// DefaultRole is assigned when a create request carries no role.
const DefaultRole = "user"

// User is a member of a tenant. TenantID is populated only for pool-tier
// rows, where it is a physical column; bridge and silo placements carry
// tenancy in the storage location.
type User struct {
	ID        string     `json:"user_id"`
	TenantID  string     `json:"tenant_id,omitempty"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Filter narrows List results.
type Filter struct {
	Role   string
	Status string
	Limit  int
	Offset int
}

var (
	// ErrUserNotFound is returned when no user matches within the caller's
	// scope.
	ErrUserNotFound = errors.New("user: user not found")
	// ErrMissingFields is returned when a create request lacks email or name.
	ErrMissingFields = errors.New("user: email and name are required")
	// ErrDuplicateEmail is returned when the email is already taken within
	// the tenant.
	ErrDuplicateEmail = errors.New("user: user with this email already exists")
	// ErrNoFields is returned when an update request carries nothing to
	// change.
	ErrNoFields = errors.New("user: no fields to update")
)
