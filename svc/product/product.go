// Package product implements the tenant-scoped product catalog. Every
// operation resolves the caller's storage target first; the same service
// code serves pool, bridge, and silo tenants.
package product

import (
	"errors"
	"time"
)

// Product is a catalog entry. Price is in minor currency units (cents).
// TenantID is populated only for pool-tier rows, where it is a physical
// column; bridge and silo placements carry tenancy in the storage location.
type Product struct {
	ID            string    `json:"product_id"`
	TenantID      string    `json:"tenant_id,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	SKU           string    `json:"sku,omitempty"`
	Category      string    `json:"category,omitempty"`
	Price         int64     `json:"price"`
	StockQuantity int64     `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Filter narrows List results.
type Filter struct {
	Category string
	Limit    int
	Offset   int
}

var (
	// ErrProductNotFound is returned when no product matches within the
	// caller's scope.
	ErrProductNotFound = errors.New("product: product not found")
	// ErrMissingName is returned when a create request carries no name.
	ErrMissingName = errors.New("product: name is required")
	// ErrNegativePrice is returned for a negative price.
	ErrNegativePrice = errors.New("product: price must not be negative")
)
