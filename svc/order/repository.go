package order

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

// ErrOrderNotFound is returned when no order matches within the tenant's
// scope. An order belonging to another tenant is indistinguishable from a
// missing one on purpose.
var ErrOrderNotFound = errors.New("order: order not found")

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status   Status
	FromDate time.Time
	ToDate   time.Time
	Limit    int
	Offset   int
}

// Repository persists orders against a resolved storage target. Every
// method receives the target computed for the current request; the
// repository must honor its scoping mode, in particular the mandatory
// tenant predicate under row_filter.
type Repository interface {
	Insert(ctx context.Context, target isolation.StorageTarget, o Order) error
	Get(ctx context.Context, target isolation.StorageTarget, orderID string) (Order, error)
	List(ctx context.Context, target isolation.StorageTarget, f Filter) ([]Order, error)
	Count(ctx context.Context, target isolation.StorageTarget) (int64, error)

	// UpdateStatus moves the order to next only if its stored status still
	// equals expected. Returns false with a nil error when the precondition
	// failed, meaning a concurrent request won the race.
	UpdateStatus(ctx context.Context, target isolation.StorageTarget, orderID string, expected, next Status, now time.Time) (bool, error)
}
