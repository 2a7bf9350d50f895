package product

import (
	"context"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

// Repository persists products against a resolved storage target. The
// target carries where the rows live and how they are scoped; the
// implementation must honor it on every statement.
type Repository interface {
	Insert(ctx context.Context, target isolation.StorageTarget, p Product) error
	// Get returns one product, or ErrProductNotFound.
	Get(ctx context.Context, target isolation.StorageTarget, productID string) (Product, error)
	List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]Product, error)
	Count(ctx context.Context, target isolation.StorageTarget) (int64, error)
	// Update overwrites the mutable fields of an existing product.
	// Returns ErrProductNotFound if no row matches within scope.
	Update(ctx context.Context, target isolation.StorageTarget, p Product) error
	// Delete removes a product. Returns ErrProductNotFound if no row
	// matches within scope.
	Delete(ctx context.Context, target isolation.StorageTarget, productID string) error
}
