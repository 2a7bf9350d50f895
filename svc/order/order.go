// Package order implements the order service: creation under tenant
// resource limits, tenant-isolated reads, and the bounded status lifecycle
// with optimistic transitions.
package order

import (
	"context"
	"time"
)

// LineItem is one ordered product. Amounts are in minor currency units
// (cents) to keep totals exact.
type LineItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"price"`
	Subtotal    int64  `json:"subtotal"`
}

// Address is a shipping or billing address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Order is the order record. TenantID is populated only on the pool tier,
// where rows from all tenants share one table; bridge and silo tables hold
// a single tenant's data and carry no tenant column.
type Order struct {
	ID             string     `json:"order_id"`
	TenantID       string     `json:"tenant_id,omitempty"`
	CustomerEmail  string     `json:"customer_email"`
	Items          []LineItem `json:"items"`
	Subtotal       int64      `json:"subtotal"`
	TaxAmount      int64      `json:"tax_amount"`
	ShippingAmount int64      `json:"shipping_amount"`
	TotalAmount    int64      `json:"total_amount"`
	Status         Status     `json:"status"`
	ShippingAddr   Address    `json:"shipping_address"`
	BillingAddr    Address    `json:"billing_address"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Event is the domain event emitted after a successful order mutation.
type Event struct {
	TenantID  string    `json:"tenant_id"`
	OrderID   string    `json:"order_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers order events to an external notification channel.
// Delivery is best-effort: the service logs failures and moves on, because
// the state change already committed and must not be rolled back by a
// publish failure.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
